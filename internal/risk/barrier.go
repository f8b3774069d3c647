package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gems/internal/models"
)

// Веса пяти способностей барьера в итоговой эффективности.
const (
	weightPreventive  = 0.30
	weightDetection   = 0.20
	weightResponse    = 0.20
	weightReliability = 0.15
	weightCoverage    = 0.15
)

// Коэффициенты деградации performance_adjustment по тяжести инцидента.
var impactAdjustments = map[models.ImpactRating]float64{
	models.ImpactNone:        1.0,
	models.ImpactMinimal:     0.95,
	models.ImpactSubstantial: 0.8,
	models.ImpactMajor:       0.6,
	models.ImpactCompromised: 0.2,
}

func overallEffectiveness(s *models.BarrierEffectivenessScore) float64 {
	return round2(float64(s.PreventiveCapability)*weightPreventive +
		float64(s.DetectionCapability)*weightDetection +
		float64(s.ResponseCapability)*weightResponse +
		float64(s.Reliability)*weightReliability +
		float64(s.Coverage)*weightCoverage)
}

// RateBarrierCapability записывает (или перезаписывает) оценку способностей
// барьера для категории риска. Пустой подтип — оценка на весь тип.
// Итоговая эффективность пересчитывается и кэшируется при записи.
func (e *Engine) RateBarrierCapability(barrierID, riskTypeID uint, riskSubtypeID *uint,
	preventive, detection, response, reliability, coverage int) (*models.BarrierEffectivenessScore, error) {

	for field, v := range map[string]int{
		"preventive_capability": preventive,
		"detection_capability":  detection,
		"response_capability":   response,
		"reliability":           reliability,
		"coverage":              coverage,
	} {
		if err := checkScore("barrier effectiveness", field, v); err != nil {
			return nil, err
		}
	}

	var score models.BarrierEffectivenessScore
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var barrier models.Barrier
		if err := tx.First(&barrier, barrierID).Error; err != nil {
			return fmt.Errorf("barrier %d: %w", barrierID, err)
		}
		if err := tx.First(&models.RiskType{}, riskTypeID).Error; err != nil {
			return fmt.Errorf("risk type %d: %w", riskTypeID, err)
		}
		if riskSubtypeID != nil {
			var subtype models.RiskSubtype
			if err := tx.First(&subtype, *riskSubtypeID).Error; err != nil {
				return fmt.Errorf("risk subtype %d: %w", *riskSubtypeID, err)
			}
			if subtype.RiskTypeID != riskTypeID {
				return invalid("barrier effectiveness", "risk_subtype",
					"subtype does not belong to the given risk type")
			}
		}

		q := tx.Where("barrier_id = ? AND risk_type_id = ?", barrierID, riskTypeID)
		if riskSubtypeID == nil {
			q = q.Where("risk_subtype_id IS NULL")
		} else {
			q = q.Where("risk_subtype_id = ?", *riskSubtypeID)
		}
		err := q.First(&score).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			score = models.BarrierEffectivenessScore{
				BarrierID:     barrierID,
				RiskTypeID:    riskTypeID,
				RiskSubtypeID: riskSubtypeID,
			}
		case err != nil:
			return err
		}

		score.PreventiveCapability = preventive
		score.DetectionCapability = detection
		score.ResponseCapability = response
		score.Reliability = reliability
		score.Coverage = coverage
		score.OverallEffectivenessScore = overallEffectiveness(&score)

		return tx.Save(&score).Error
	})
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// applicability — предрассчитанный индекс применимости барьера: какие типы
// и подтипы риска он покрывает и какие строки эффективности у него есть.
// Строится один раз на проход пересчёта вместо повторных join-обходов.
type applicability struct {
	typeIDs    map[uint]bool
	subtypeIDs map[uint]bool
	// подтипы барьера, сгруппированные по их типу риска
	subtypesByType map[uint][]uint
	scores         []models.BarrierEffectivenessScore
	performance    float64
}

func buildApplicability(tx *gorm.DB, barrier *models.Barrier) (*applicability, error) {
	var full models.Barrier
	if err := tx.Preload("RiskTypes").Preload("RiskSubtypes").
		Preload("EffectivenessScores").
		First(&full, barrier.ID).Error; err != nil {
		return nil, err
	}

	idx := &applicability{
		typeIDs:        make(map[uint]bool),
		subtypeIDs:     make(map[uint]bool),
		subtypesByType: make(map[uint][]uint),
		scores:         full.EffectivenessScores,
		performance:    full.PerformanceAdjustment,
	}
	for _, rt := range full.RiskTypes {
		idx.typeIDs[rt.ID] = true
	}
	for _, st := range full.RiskSubtypes {
		idx.subtypeIDs[st.ID] = true
		idx.subtypesByType[st.RiskTypeID] = append(idx.subtypesByType[st.RiskTypeID], st.ID)
	}
	return idx, nil
}

// effectivenessFor — эффективность барьера против типа риска: максимум по
// всем применимым строкам (прямым и по явно привязанным подтипам этого типа),
// умноженный на performance_adjustment. Побеждает самая выгодная
// задокументированная конфигурация барьера. Нет строк — защита не заявлена, 0.
func (idx *applicability) effectivenessFor(riskTypeID uint) float64 {
	covered := make(map[uint]bool, len(idx.subtypesByType[riskTypeID]))
	for _, id := range idx.subtypesByType[riskTypeID] {
		covered[id] = true
	}

	best := 0.0
	found := false
	for _, s := range idx.scores {
		if s.RiskTypeID != riskTypeID {
			continue
		}
		switch {
		case s.RiskSubtypeID == nil:
			if !idx.typeIDs[riskTypeID] {
				continue
			}
		default:
			if !covered[*s.RiskSubtypeID] {
				continue
			}
		}
		found = true
		if s.OverallEffectivenessScore > best {
			best = s.OverallEffectivenessScore
		}
	}
	if !found {
		return 0
	}
	return round2(best * idx.performance)
}

// RiskCategoryEffectiveness — публичная обёртка для разовых запросов.
func (e *Engine) RiskCategoryEffectiveness(barrierID, riskTypeID uint) (float64, error) {
	var score float64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		idx, err := buildApplicability(tx, &models.Barrier{Model: gorm.Model{ID: barrierID}})
		if err != nil {
			return err
		}
		score = idx.effectivenessFor(riskTypeID)
		return nil
	})
	return score, err
}

// OverallEffectiveness — средняя эффективность барьера по всем его строкам
// с учётом деградации. Используется после закрытия инцидента.
func (e *Engine) OverallEffectiveness(barrierID uint) (float64, error) {
	var barrier models.Barrier
	if err := e.db.Preload("EffectivenessScores").First(&barrier, barrierID).Error; err != nil {
		return 0, err
	}
	if len(barrier.EffectivenessScores) == 0 {
		return 0, nil
	}
	var scores []float64
	for _, s := range barrier.EffectivenessScores {
		scores = append(scores, s.OverallEffectivenessScore)
	}
	return round2(mean(scores) * barrier.PerformanceAdjustment), nil
}

// adjustPerformance деградирует барьер по тяжести инцидента. Движение только
// вниз, значение зажато в [0.1, 1.0].
func adjustPerformance(tx *gorm.DB, barrier *models.Barrier, rating models.ImpactRating) error {
	factor, ok := impactAdjustments[rating]
	if !ok {
		return invalid("barrier issue", "impact_rating", fmt.Sprintf("unknown rating %q", rating))
	}

	barrier.PerformanceAdjustment *= factor
	if barrier.PerformanceAdjustment < 0.1 {
		barrier.PerformanceAdjustment = 0.1
	}
	if barrier.PerformanceAdjustment > 1.0 {
		barrier.PerformanceAdjustment = 1.0
	}
	return tx.Model(&models.Barrier{}).Where("id = ?", barrier.ID).
		Update("performance_adjustment", barrier.PerformanceAdjustment).Error
}

// ReportIssue регистрирует инцидент: барьер деградирует, все затронутые
// объекты пересчитываются. Либо фиксируется весь каскад, либо ничего.
func (e *Engine) ReportIssue(barrierID uint, affectedAssetIDs []uint,
	rating models.ImpactRating, description string, reportedBy *uint) (*models.BarrierIssueReport, error) {

	if _, ok := impactAdjustments[rating]; !ok {
		return nil, invalid("barrier issue", "impact_rating", fmt.Sprintf("unknown rating %q", rating))
	}

	var report models.BarrierIssueReport
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var barrier models.Barrier
		if err := tx.First(&barrier, barrierID).Error; err != nil {
			return fmt.Errorf("barrier %d: %w", barrierID, err)
		}

		var assets []models.Asset
		if len(affectedAssetIDs) > 0 {
			if err := tx.Find(&assets, affectedAssetIDs).Error; err != nil {
				return err
			}
			if len(assets) != len(affectedAssetIDs) {
				return invalid("barrier issue", "affected_assets", "unknown asset in list")
			}
		}

		report = models.BarrierIssueReport{
			BarrierID:      barrierID,
			ReportedByID:   reportedBy,
			Description:    description,
			Status:         models.IssueOpen,
			ImpactRating:   rating,
			AffectedAssets: assets,
		}
		if err := tx.Create(&report).Error; err != nil {
			return err
		}

		if err := adjustPerformance(tx, &barrier, rating); err != nil {
			return err
		}
		e.log.WithFields(logrus.Fields{
			"barrier":     barrier.Name,
			"impact":      rating,
			"performance": barrier.PerformanceAdjustment,
		}).Warn("barrier degraded by issue report")

		for i := range assets {
			if err := e.recomputeAsset(tx, assets[i].ID); err != nil {
				return fmt.Errorf("recompute asset %d: %w", assets[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ResolveIssue закрывает инцидент. Деградация по умолчанию не откатывается
// (см. Options.RestoreOnResolve), но эффективность пересчитывается и
// изменения распространяются по связям, разделяющим барьер.
func (e *Engine) ResolveIssue(issueID uint, notes string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var report models.BarrierIssueReport
		if err := tx.Preload("AffectedAssets").First(&report, issueID).Error; err != nil {
			return fmt.Errorf("issue %d: %w", issueID, err)
		}
		if report.Status == models.IssueResolved || report.Status == models.IssueClosed {
			return invalid("barrier issue", "status", "issue is already resolved")
		}

		now := time.Now()
		report.Status = models.IssueResolved
		report.ResolvedAt = &now
		report.ResolutionNotes = notes
		if err := tx.Save(&report).Error; err != nil {
			return err
		}

		var barrier models.Barrier
		if err := tx.First(&barrier, report.BarrierID).Error; err != nil {
			return err
		}

		if e.opts.RestoreOnResolve {
			if factor := impactAdjustments[report.ImpactRating]; factor > 0 {
				barrier.PerformanceAdjustment /= factor
				if barrier.PerformanceAdjustment > 1.0 {
					barrier.PerformanceAdjustment = 1.0
				}
				if err := tx.Model(&models.Barrier{}).Where("id = ?", barrier.ID).
					Update("performance_adjustment", barrier.PerformanceAdjustment).Error; err != nil {
					return err
				}
			}
		}

		// переутверждаем кэш итоговой эффективности
		if err := e.refreshEffectivenessCache(tx, barrier.ID); err != nil {
			return err
		}

		// пересчёт напрямую затронутых объектов
		for i := range report.AffectedAssets {
			if err := e.recomputeAsset(tx, report.AffectedAssets[i].ID); err != nil {
				return err
			}
		}

		// и распространение по связям, в которых барьер общий
		var links []models.AssetLink
		if err := tx.Preload("Assets").Preload("SharedRisks").
			Joins("JOIN asset_link_barriers alb ON alb.asset_link_id = asset_links.id").
			Where("alb.barrier_id = ?", barrier.ID).
			Find(&links).Error; err != nil {
			return err
		}
		for i := range links {
			if err := e.propagateLink(tx, &links[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// refreshEffectivenessCache перевычисляет кэшированные итоговые оценки строк
// эффективности барьера.
func (e *Engine) refreshEffectivenessCache(tx *gorm.DB, barrierID uint) error {
	var scores []models.BarrierEffectivenessScore
	if err := tx.Where("barrier_id = ?", barrierID).Find(&scores).Error; err != nil {
		return err
	}
	for i := range scores {
		fresh := overallEffectiveness(&scores[i])
		if fresh == scores[i].OverallEffectivenessScore {
			continue
		}
		scores[i].OverallEffectivenessScore = fresh
		if err := tx.Save(&scores[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
