package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gems/internal/models"
)

// Каскад пересчёта. Каждая мутация выше по потоку явно вызывает стадии
// вниз по порядку внутри одной транзакции; скрытой рекурсии через хуки
// сохранения здесь нет по построению.

// Веса при распространении по связи: собственная оценка объекта важнее
// оценки соседа.
const (
	linkOwnWeight     = 0.7
	linkPeerWeight    = 0.3
	convergeEpsilon   = 0.01
	convergeMaxPasses = 20
)

// RecomputeAsset — полный пересчёт объекта: оценки по опросникам, затем
// остаточные риски его сценариев, затем матрицы.
func (e *Engine) RecomputeAsset(assetID uint) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		return e.recomputeAsset(tx, assetID)
	})
}

func (e *Engine) recomputeAsset(tx *gorm.DB, assetID uint) error {
	var asset models.Asset
	if err := tx.First(&asset, assetID).Error; err != nil {
		return fmt.Errorf("asset %d: %w", assetID, err)
	}

	if err := e.recomputeAssetScores(tx, &asset); err != nil {
		return err
	}

	var assessments []models.RiskScenarioAssessment
	if err := tx.Where("asset_id = ?", assetID).Find(&assessments).Error; err != nil {
		return err
	}
	for i := range assessments {
		if err := e.refreshResidual(tx, &assessments[i]); err != nil {
			return err
		}
	}

	_, err := e.generateMatrices(tx, &asset)
	return err
}

// CreateAsset создаёт объект, заводит дефолтные оценки по его сценариям
// (likelihood = impact = 1) и строит первые матрицы.
func (e *Engine) CreateAsset(asset *models.Asset) error {
	if asset.CriticalityScore == 0 {
		asset.CriticalityScore = 1
	}
	if asset.VulnerabilityScore == 0 {
		asset.VulnerabilityScore = 1
	}
	if err := checkScore("asset", "criticality_score", asset.CriticalityScore); err != nil {
		return err
	}
	if err := checkScore("asset", "vulnerability_score", asset.VulnerabilityScore); err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		if err := e.seedDefaultAssessments(tx, asset); err != nil {
			return err
		}
		_, err := e.generateMatrices(tx, asset)
		return err
	})
}

func (e *Engine) seedDefaultAssessments(tx *gorm.DB, asset *models.Asset) error {
	var full models.Asset
	if err := tx.Preload("Scenarios").First(&full, asset.ID).Error; err != nil {
		return err
	}

	for _, scenario := range full.Scenarios {
		assessment, err := upsertAssessment(tx, asset.ID, scenario.ID)
		if err != nil {
			return err
		}
		assessment.LikelihoodScore = 1
		assessment.ImpactScore = 1
		assessment.VulnerabilityScore = 1
		assessment.ResidualRiskScore = 1
		assessment.BarrierEffectiveness = models.JSONMap{}
		assessment.AssessmentDate = time.Now()
		if err := tx.Save(assessment).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateRiskType создаёт тип риска и заводит базовую оценку угрозы
// (балл 5) для каждой страны присутствия компании.
func (e *Engine) CreateRiskType(rt *models.RiskType) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rt).Error; err != nil {
			return err
		}

		var countries []models.Country
		if err := tx.Where("company_operated = ?", true).Find(&countries).Error; err != nil {
			return err
		}
		for _, country := range countries {
			if err := seedBaseline(tx, rt.ID, country.ID,
				"Automatically created for new risk type."); err != nil {
				return err
			}
		}
		e.log.WithField("risk_type", rt.Name).
			WithField("countries", len(countries)).
			Info("seeded baseline threat assessments")
		return nil
	})
}

// CreateCountry создаёт страну; для страны присутствия сразу заводятся
// базовые оценки по всем типам риска.
func (e *Engine) CreateCountry(country *models.Country) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(country).Error; err != nil {
			return err
		}
		if !country.CompanyOperated {
			return nil
		}

		var riskTypes []models.RiskType
		if err := tx.Find(&riskTypes).Error; err != nil {
			return err
		}
		for _, rt := range riskTypes {
			if err := seedBaseline(tx, rt.ID, country.ID,
				"Automatically created for new company-operated country."); err != nil {
				return err
			}
		}
		return nil
	})
}

func seedBaseline(tx *gorm.DB, riskTypeID, countryID uint, notes string) error {
	var count int64
	if err := tx.Model(&models.BaselineThreatAssessment{}).
		Where("risk_type_id = ? AND country_id = ?", riskTypeID, countryID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	bta := models.BaselineThreatAssessment{
		RiskTypeID:     riskTypeID,
		CountryID:      countryID,
		BaselineScore:  5,
		DateAssessed:   time.Now(),
		ImpactOnAssets: true,
		Notes:          notes,
	}
	return tx.Create(&bta).Error
}

// SetBaselineThreat записывает внешнюю базовую оценку и пересчитывает
// матрицы всех объектов страны. Отказ на любом объекте откатывает всё:
// частично обновлённые страны хуже, чем не обновлённые.
func (e *Engine) SetBaselineThreat(riskTypeID, countryID uint, score int,
	date time.Time, impactsAssets bool, notes string) (*models.BaselineThreatAssessment, error) {

	if err := checkScore("baseline threat", "baseline_score", score); err != nil {
		return nil, err
	}

	var bta models.BaselineThreatAssessment
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.RiskType{}, riskTypeID).Error; err != nil {
			return fmt.Errorf("risk type %d: %w", riskTypeID, err)
		}
		if err := tx.First(&models.Country{}, countryID).Error; err != nil {
			return fmt.Errorf("country %d: %w", countryID, err)
		}

		res := tx.Where("risk_type_id = ? AND country_id = ? AND date_assessed = ?",
			riskTypeID, countryID, date).First(&bta)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		bta.RiskTypeID = riskTypeID
		bta.CountryID = countryID
		bta.BaselineScore = score
		bta.DateAssessed = date
		bta.ImpactOnAssets = impactsAssets
		bta.Notes = notes
		if err := tx.Save(&bta).Error; err != nil {
			return err
		}

		if !impactsAssets {
			return nil
		}

		var assets []models.Asset
		if err := tx.Where("country_id = ?", countryID).Find(&assets).Error; err != nil {
			return err
		}
		for i := range assets {
			if _, err := e.generateMatrices(tx, &assets[i]); err != nil {
				return fmt.Errorf("matrices for asset %d: %w", assets[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bta, nil
}

// CreateLink создаёт связь объектов с общими типами риска и барьерами.
func (e *Engine) CreateLink(name string, assetIDs, riskTypeIDs, barrierIDs []uint) (*models.AssetLink, error) {
	if name == "" {
		return nil, invalid("asset link", "name", "must not be empty")
	}
	if len(assetIDs) < 2 {
		return nil, invalid("asset link", "assets", "link needs at least two assets")
	}

	var link models.AssetLink
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var assets []models.Asset
		if err := tx.Find(&assets, assetIDs).Error; err != nil {
			return err
		}
		if len(assets) != len(assetIDs) {
			return invalid("asset link", "assets", "unknown asset in list")
		}
		var risks []models.RiskType
		if len(riskTypeIDs) > 0 {
			if err := tx.Find(&risks, riskTypeIDs).Error; err != nil {
				return err
			}
		}
		var barriers []models.Barrier
		if len(barrierIDs) > 0 {
			if err := tx.Find(&barriers, barrierIDs).Error; err != nil {
				return err
			}
		}

		link = models.AssetLink{
			Name:           name,
			Assets:         assets,
			SharedRisks:    risks,
			SharedBarriers: barriers,
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Propagate распространяет оценки по связи. По умолчанию — ровно один шаг
// смешивания 70/30 на вызов (повторный вызов сдвинет значения ещё раз,
// это ожидаемое поведение); с ConvergeLinks — итерации до стабилизации.
func (e *Engine) Propagate(linkID uint) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var link models.AssetLink
		if err := tx.Preload("Assets").Preload("SharedRisks").
			First(&link, linkID).Error; err != nil {
			return fmt.Errorf("asset link %d: %w", linkID, err)
		}
		return e.propagateLink(tx, &link)
	})
}

func (e *Engine) propagateLink(tx *gorm.DB, link *models.AssetLink) error {
	if len(link.Assets) < 2 || len(link.SharedRisks) == 0 {
		return nil
	}

	passes := 1
	if e.opts.ConvergeLinks {
		passes = convergeMaxPasses
	}

	for pass := 0; pass < passes; pass++ {
		delta, err := e.blendPass(tx, link)
		if err != nil {
			return err
		}
		if e.opts.ConvergeLinks && delta < convergeEpsilon {
			e.log.WithFields(logrus.Fields{
				"link":   link.Name,
				"passes": pass + 1,
			}).Debug("link propagation converged")
			break
		}
	}

	for i := range link.Assets {
		if _, err := e.generateMatrices(tx, &link.Assets[i]); err != nil {
			return fmt.Errorf("matrices for linked asset %d: %w", link.Assets[i].ID, err)
		}
	}
	return nil
}

// blendPass — один проход смешивания: каждый объект по каждому общему типу
// риска подтягивает к себе средние likelihood/impact соседей с весом 30%.
// Объекты обходятся последовательно, уже обновлённый сосед участвует
// новыми значениями — как и в исходной модели распространения.
func (e *Engine) blendPass(tx *gorm.DB, link *models.AssetLink) (float64, error) {
	var maxDelta float64

	for i := range link.Assets {
		asset := &link.Assets[i]
		for _, risk := range link.SharedRisks {
			own, err := assessmentsForRiskType(tx, asset.ID, risk.ID)
			if err != nil {
				return 0, err
			}
			if len(own) == 0 {
				continue
			}

			var peerLikelihood, peerImpact []float64
			for j := range link.Assets {
				if link.Assets[j].ID == asset.ID {
					continue
				}
				peer, err := assessmentsForRiskType(tx, link.Assets[j].ID, risk.ID)
				if err != nil {
					return 0, err
				}
				for _, p := range peer {
					peerLikelihood = append(peerLikelihood, p.LikelihoodScore)
					peerImpact = append(peerImpact, p.ImpactScore)
				}
			}
			if len(peerLikelihood) == 0 {
				continue
			}

			linkedLikelihood := mean(peerLikelihood)
			linkedImpact := mean(peerImpact)

			for k := range own {
				a := &own[k]
				newLikelihood := round2(a.LikelihoodScore*linkOwnWeight + linkedLikelihood*linkPeerWeight)
				newImpact := round2(a.ImpactScore*linkOwnWeight + linkedImpact*linkPeerWeight)

				if d := abs(newLikelihood - a.LikelihoodScore); d > maxDelta {
					maxDelta = d
				}
				if d := abs(newImpact - a.ImpactScore); d > maxDelta {
					maxDelta = d
				}

				a.LikelihoodScore = newLikelihood
				a.ImpactScore = newImpact
				if err := e.refreshResidual(tx, a); err != nil {
					return 0, err
				}
			}
		}
	}
	return maxDelta, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// assessmentsForRiskType — оценки объекта, чьи сценарии относятся (через
// подтип) к данному типу риска.
func assessmentsForRiskType(tx *gorm.DB, assetID, riskTypeID uint) ([]models.RiskScenarioAssessment, error) {
	var out []models.RiskScenarioAssessment
	err := tx.
		Select("DISTINCT risk_scenario_assessments.*").
		Joins("JOIN scenario_risk_subtypes srs ON srs.scenario_id = risk_scenario_assessments.scenario_id").
		Joins("JOIN risk_subtypes rs ON rs.id = srs.risk_subtype_id").
		Where("risk_scenario_assessments.asset_id = ? AND rs.risk_type_id = ?", assetID, riskTypeID).
		Find(&out).Error
	return out, err
}
