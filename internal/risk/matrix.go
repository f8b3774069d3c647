package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gems/internal/models"
)

// Итоговые матрицы риска. Три уровня детализации пишутся отдельными
// строками с явным тегом: сводная по типу риска, по подтипу и по барьеру.

func riskLevel(score float64) models.RiskLevel {
	switch {
	case score <= 3:
		return models.RiskLow
	case score <= 5:
		return models.RiskMedium
	case score <= 8:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// GenerateMatrices — головная точка пересчёта матриц объекта. Повторный
// вызов без изменения входов даёт те же строки (upsert по ключу),
// дубликатов не создаёт; append-only остаётся только журнал RiskLog.
func (e *Engine) GenerateMatrices(assetID uint) ([]models.FinalRiskMatrix, error) {
	var matrices []models.FinalRiskMatrix
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, assetID).Error; err != nil {
			return fmt.Errorf("asset %d: %w", assetID, err)
		}
		var err error
		matrices, err = e.generateMatrices(tx, &asset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return matrices, nil
}

func (e *Engine) generateMatrices(tx *gorm.DB, asset *models.Asset) ([]models.FinalRiskMatrix, error) {
	var assessments []models.RiskScenarioAssessment
	if err := tx.Preload("Scenario").Preload("Scenario.RiskSubtypes").
		Preload("Scenario.Barriers").
		Where("asset_id = ?", asset.ID).
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return nil, nil
	}

	// группировка вкладов: тип риска ← сценарий ← подтип
	byType := make(map[uint][]*models.RiskScenarioAssessment)
	bySubtype := make(map[uint][]*models.RiskScenarioAssessment)
	for i := range assessments {
		a := &assessments[i]
		seen := make(map[uint]bool)
		for _, st := range a.Scenario.RiskSubtypes {
			bySubtype[st.ID] = append(bySubtype[st.ID], a)
			if !seen[st.RiskTypeID] {
				seen[st.RiskTypeID] = true
				byType[st.RiskTypeID] = append(byType[st.RiskTypeID], a)
			}
		}
	}

	// индекс применимости строится один раз на проход
	var withBarriers models.Asset
	if err := tx.Preload("Barriers").First(&withBarriers, asset.ID).Error; err != nil {
		return nil, err
	}
	barrierIdx := make(map[uint]*applicability, len(withBarriers.Barriers))
	for i := range withBarriers.Barriers {
		idx, err := buildApplicability(tx, &withBarriers.Barriers[i])
		if err != nil {
			return nil, err
		}
		barrierIdx[withBarriers.Barriers[i].ID] = idx
	}

	now := time.Now()
	var out []models.FinalRiskMatrix

	for riskTypeID, group := range byType {
		m, err := e.generateOverallMatrix(tx, asset, riskTypeID, group, &withBarriers, barrierIdx, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}

	for subtypeID, group := range bySubtype {
		m, err := e.generateSubRiskMatrix(tx, asset, subtypeID, group, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}

	for i := range withBarriers.Barriers {
		b := &withBarriers.Barriers[i]
		m, err := e.generateBarrierMatrix(tx, asset, b, barrierIdx[b.ID], assessments, now)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}

	return out, nil
}

// generateOverallMatrix — сводная строка по типу риска: средний остаточный
// риск сценариев, смешанный с актуальной BTA (если есть) и с внутренними
// оценками объекта. Внутренние оценки участвуют в смеси сознательно:
// (blended + criticality + vulnerability) / 3.
func (e *Engine) generateOverallMatrix(tx *gorm.DB, asset *models.Asset, riskTypeID uint,
	group []*models.RiskScenarioAssessment, withBarriers *models.Asset,
	barrierIdx map[uint]*applicability, now time.Time) (*models.FinalRiskMatrix, error) {

	var residuals []float64
	contributions := make([]models.ScenarioContribution, 0, len(group))
	for _, a := range group {
		residuals = append(residuals, a.ResidualRiskScore)
		contributions = append(contributions, models.ScenarioContribution{
			Scenario:      a.Scenario.Name,
			Likelihood:    a.LikelihoodScore,
			Impact:        a.ImpactScore,
			Vulnerability: a.VulnerabilityScore,
			ResidualRisk:  a.ResidualRiskScore,
		})
	}
	avgResidual := mean(residuals)

	// актуальная базовая оценка угрозы: последняя по дате для страны объекта
	var btaScore *int
	var bta models.BaselineThreatAssessment
	err := tx.Where("risk_type_id = ? AND country_id = ?", riskTypeID, asset.CountryID).
		Order("date_assessed DESC").First(&bta).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// без BTA работаем по несмешанному среднему
	case err != nil:
		return nil, err
	default:
		btaScore = &bta.BaselineScore
	}

	blended := avgResidual
	if btaScore != nil {
		blended = (avgResidual + float64(*btaScore)) / 2
	}
	final := round2((blended + float64(asset.CriticalityScore) + float64(asset.VulnerabilityScore)) / 3)

	details, err := json.Marshal(models.SubRiskDetails{
		ScenarioAssessments: contributions,
		BTAScore:            btaScore,
	})
	if err != nil {
		return nil, err
	}

	barrierDetails := models.JSONMap{}
	for i := range withBarriers.Barriers {
		b := &withBarriers.Barriers[i]
		if s := barrierIdx[b.ID].effectivenessFor(riskTypeID); s > 0 {
			barrierDetails[b.Name] = s
		}
	}

	rtID := riskTypeID
	matrix, err := upsertMatrix(tx, asset.ID, models.MatrixOverall, &rtID, nil, nil)
	if err != nil {
		return nil, err
	}
	matrix.ResidualRiskScore = final
	matrix.RiskLevel = riskLevel(final)
	matrix.SubRiskDetails = models.JSONDoc(details)
	matrix.BarrierDetails = barrierDetails
	matrix.DateGenerated = now
	if err := tx.Save(matrix).Error; err != nil {
		return nil, err
	}

	// каждая запись сводной матрицы фиксируется в журнале
	logBTA := 0
	if btaScore != nil {
		logBTA = *btaScore
	}
	entry := models.RiskLog{
		AssetID:            asset.ID,
		RiskTypeID:         riskTypeID,
		BTAScore:           logBTA,
		VulnerabilityScore: asset.VulnerabilityScore,
		CriticalityScore:   asset.CriticalityScore,
		ResidualRiskScore:  final,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"asset":     asset.Name,
		"risk_type": riskTypeID,
		"score":     final,
		"level":     matrix.RiskLevel,
	}).Info("risk matrix generated")

	return matrix, nil
}

// generateSubRiskMatrix — разбивка по подтипу: среднее остаточных рисков его
// сценариев без смешивания с BTA и внутренними оценками (эти строки
// объясняют состав сводной, а не дублируют её).
func (e *Engine) generateSubRiskMatrix(tx *gorm.DB, asset *models.Asset, subtypeID uint,
	group []*models.RiskScenarioAssessment, now time.Time) (*models.FinalRiskMatrix, error) {

	var residuals []float64
	contributions := make([]models.ScenarioContribution, 0, len(group))
	for _, a := range group {
		residuals = append(residuals, a.ResidualRiskScore)
		contributions = append(contributions, models.ScenarioContribution{
			Scenario:      a.Scenario.Name,
			Likelihood:    a.LikelihoodScore,
			Impact:        a.ImpactScore,
			Vulnerability: a.VulnerabilityScore,
			ResidualRisk:  a.ResidualRiskScore,
		})
	}
	score := round2(mean(residuals))

	details, err := json.Marshal(models.SubRiskDetails{ScenarioAssessments: contributions})
	if err != nil {
		return nil, err
	}

	stID := subtypeID
	matrix, err := upsertMatrix(tx, asset.ID, models.MatrixSubRisk, nil, &stID, nil)
	if err != nil {
		return nil, err
	}
	matrix.ResidualRiskScore = score
	matrix.RiskLevel = riskLevel(score)
	matrix.SubRiskDetails = models.JSONDoc(details)
	matrix.DateGenerated = now
	return matrix, tx.Save(matrix).Error
}

// generateBarrierMatrix — разбивка по барьеру: какой остаточный риск
// оставляет этот барьер в одиночку по применимым к нему сценариям.
// Возвращает nil без ошибки, если барьеру нечего митигировать на объекте.
func (e *Engine) generateBarrierMatrix(tx *gorm.DB, asset *models.Asset, barrier *models.Barrier,
	idx *applicability, assessments []models.RiskScenarioAssessment, now time.Time) (*models.FinalRiskMatrix, error) {

	var residuals []float64
	bestEff := 0.0
	for i := range assessments {
		a := &assessments[i]

		onScenario := false
		for _, sb := range a.Scenario.Barriers {
			if sb.ID == barrier.ID {
				onScenario = true
				break
			}
		}
		if !onScenario {
			continue
		}

		eff := 0.0
		for _, st := range a.Scenario.RiskSubtypes {
			if s := idx.effectivenessFor(st.RiskTypeID); s > eff {
				eff = s
			}
		}
		if eff == 0 {
			continue
		}
		if eff > bestEff {
			bestEff = eff
		}

		base := math.Cbrt(a.LikelihoodScore * a.ImpactScore * a.VulnerabilityScore)
		residuals = append(residuals, base/(1+eff))
	}
	if len(residuals) == 0 {
		return nil, nil
	}

	score := round2(mean(residuals))
	bID := barrier.ID
	matrix, err := upsertMatrix(tx, asset.ID, models.MatrixBarrier, nil, nil, &bID)
	if err != nil {
		return nil, err
	}
	matrix.ResidualRiskScore = score
	matrix.RiskLevel = riskLevel(score)
	matrix.BarrierDetails = models.JSONMap{barrier.Name: bestEff}
	matrix.DateGenerated = now
	return matrix, tx.Save(matrix).Error
}

func upsertMatrix(tx *gorm.DB, assetID uint, kind models.MatrixType,
	riskTypeID, subtypeID, barrierID *uint) (*models.FinalRiskMatrix, error) {

	q := tx.Where("asset_id = ? AND matrix_type = ?", assetID, kind)
	switch kind {
	case models.MatrixOverall:
		q = q.Where("risk_type_id = ?", *riskTypeID)
	case models.MatrixSubRisk:
		q = q.Where("risk_subtype_id = ?", *subtypeID)
	case models.MatrixBarrier:
		q = q.Where("barrier_id = ?", *barrierID)
	}

	var matrix models.FinalRiskMatrix
	err := q.First(&matrix).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		matrix = models.FinalRiskMatrix{
			AssetID:       assetID,
			MatrixType:    kind,
			RiskTypeID:    riskTypeID,
			RiskSubtypeID: subtypeID,
			BarrierID:     barrierID,
		}
	case err != nil:
		return nil, err
	}
	return &matrix, nil
}
