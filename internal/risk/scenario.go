package risk

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	"gems/internal/models"
)

// Оценка пары (объект, сценарий): взвешенные баллы по видам вопросов,
// геометрическое среднее как базовый риск, демпфирование эффективностью
// применимых барьеров.

// SubmitScenarioAnswer сохраняет ответ на вопрос сценария и переоценивает
// сценарий вместе с матрицами объекта.
func (e *Engine) SubmitScenarioAnswer(assetID, scenarioID, questionID, choiceID uint) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var question models.ScenarioQuestion
		if err := tx.First(&question, questionID).Error; err != nil {
			return fmt.Errorf("scenario question %d: %w", questionID, err)
		}
		if question.ScenarioID != scenarioID {
			return invalid("scenario answer", "question", "question belongs to another scenario")
		}

		var choice models.QuestionChoice
		if err := tx.First(&choice, choiceID).Error; err != nil {
			return fmt.Errorf("question choice %d: %w", choiceID, err)
		}
		if choice.QuestionID != questionID {
			// чужой вариант ответа — отклоняем, а не подставляем дефолт
			return invalid("scenario answer", "selected_choice",
				"choice does not belong to the question")
		}

		var answer models.AssetScenarioAnswer
		err := tx.Where("asset_id = ? AND scenario_id = ? AND question_id = ?",
			assetID, scenarioID, questionID).First(&answer).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			answer = models.AssetScenarioAnswer{
				AssetID:    assetID,
				ScenarioID: scenarioID,
				QuestionID: questionID,
			}
		case err != nil:
			return err
		}

		answer.SelectedChoiceID = choiceID
		if err := tx.Save(&answer).Error; err != nil {
			return err
		}

		if _, err := e.assessScenario(tx, assetID, scenarioID); err != nil {
			return err
		}
		var asset models.Asset
		if err := tx.First(&asset, assetID).Error; err != nil {
			return err
		}
		_, err = e.generateMatrices(tx, &asset)
		return err
	})
}

// AssessScenario переоценивает сценарий для объекта по текущим ответам.
// Идемпотентна: повторный вызов перезаписывает ту же строку, ничего не
// накапливая.
func (e *Engine) AssessScenario(assetID, scenarioID uint) (*models.RiskScenarioAssessment, error) {
	var assessment *models.RiskScenarioAssessment
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		assessment, err = e.assessScenario(tx, assetID, scenarioID)
		if err != nil {
			return err
		}
		var asset models.Asset
		if err := tx.First(&asset, assetID).Error; err != nil {
			return err
		}
		_, err = e.generateMatrices(tx, &asset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

func (e *Engine) assessScenario(tx *gorm.DB, assetID, scenarioID uint) (*models.RiskScenarioAssessment, error) {
	var scenario models.Scenario
	if err := tx.Preload("RiskSubtypes").Preload("Barriers").
		First(&scenario, scenarioID).Error; err != nil {
		return nil, fmt.Errorf("scenario %d: %w", scenarioID, err)
	}

	var answers []models.AssetScenarioAnswer
	if err := tx.Preload("Question").Preload("SelectedChoice").
		Where("asset_id = ? AND scenario_id = ?", assetID, scenarioID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	likelihood := weightedKindScore(answers, models.QuestionLikelihood)
	impact := weightedKindScore(answers, models.QuestionImpact)
	vulnerability := weightedKindScore(answers, models.QuestionVulnerability)

	effectiveness, err := e.scenarioBarrierEffectiveness(tx, &scenario)
	if err != nil {
		return nil, err
	}

	assessment, err := upsertAssessment(tx, assetID, scenarioID)
	if err != nil {
		return nil, err
	}
	assessment.LikelihoodScore = likelihood
	assessment.ImpactScore = impact
	assessment.VulnerabilityScore = vulnerability
	assessment.BarrierEffectiveness = effectiveness
	assessment.ResidualRiskScore = residualRisk(likelihood, impact, vulnerability, effectiveness)
	assessment.AssessmentDate = time.Now()

	if err := tx.Save(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

// refreshResidual пересчитывает демпфирование и остаточный риск по текущему
// состоянию барьеров, сохраняя likelihood/impact/vulnerability как есть.
// Нужен каскадам, которые меняют не ответы, а окружение (инциденты, связи).
func (e *Engine) refreshResidual(tx *gorm.DB, assessment *models.RiskScenarioAssessment) error {
	var scenario models.Scenario
	if err := tx.Preload("RiskSubtypes").Preload("Barriers").
		First(&scenario, assessment.ScenarioID).Error; err != nil {
		return err
	}

	effectiveness, err := e.scenarioBarrierEffectiveness(tx, &scenario)
	if err != nil {
		return err
	}

	assessment.BarrierEffectiveness = effectiveness
	assessment.ResidualRiskScore = residualRisk(assessment.LikelihoodScore,
		assessment.ImpactScore, assessment.VulnerabilityScore, effectiveness)
	assessment.AssessmentDate = time.Now()
	return tx.Save(assessment).Error
}

// residualRisk = base / (1 + средняя эффективность). Эффективность живёт на
// шкале 0–10, поэтому это именно демпфирующий делитель: остаточный риск
// сжимается к нулю асимптотически, но не достигает его.
func residualRisk(likelihood, impact, vulnerability float64, eff models.JSONMap) float64 {
	base := math.Cbrt(likelihood * impact * vulnerability)
	if len(eff) == 0 {
		return round2(base)
	}

	var vals []float64
	for _, v := range eff {
		vals = append(vals, v)
	}
	return round2(base / (1 + mean(vals)))
}

// weightedKindScore — Σ(балл×вес)/Σ(вес) по ответам данного вида,
// 5 (середина шкалы) — если ответов нет.
func weightedKindScore(answers []models.AssetScenarioAnswer, kind models.QuestionKind) float64 {
	var weightSum, weighted float64
	for _, a := range answers {
		if a.Question.QuestionType != kind {
			continue
		}
		weightSum += a.Question.Weight
		weighted += float64(a.SelectedChoice.Score) * a.Question.Weight
	}
	if weightSum == 0 {
		return 5
	}
	return round2(weighted / weightSum)
}

// scenarioBarrierEffectiveness — применимые к сценарию барьеры и лучшая
// эффективность каждого против типов риска сценария. Для каждого барьера
// берётся максимум по категориям ("самая эффективная применимая
// конфигурация"), нулевые вклады не записываются.
func (e *Engine) scenarioBarrierEffectiveness(tx *gorm.DB, scenario *models.Scenario) (models.JSONMap, error) {
	if len(scenario.Barriers) == 0 {
		return models.JSONMap{}, nil
	}

	typeIDs := make(map[uint]bool)
	subtypeIDs := make(map[uint]bool)
	for _, st := range scenario.RiskSubtypes {
		typeIDs[st.RiskTypeID] = true
		subtypeIDs[st.ID] = true
	}

	eff := models.JSONMap{}
	for i := range scenario.Barriers {
		idx, err := buildApplicability(tx, &scenario.Barriers[i])
		if err != nil {
			return nil, err
		}

		applicable := false
		for id := range typeIDs {
			if idx.typeIDs[id] {
				applicable = true
				break
			}
		}
		if !applicable {
			for id := range subtypeIDs {
				if idx.subtypeIDs[id] {
					applicable = true
					break
				}
			}
		}
		if !applicable {
			continue
		}

		best := 0.0
		for id := range typeIDs {
			if s := idx.effectivenessFor(id); s > best {
				best = s
			}
		}
		if best > 0 {
			eff[strconv.FormatUint(uint64(scenario.Barriers[i].ID), 10)] = best
		}
	}
	return eff, nil
}

func upsertAssessment(tx *gorm.DB, assetID, scenarioID uint) (*models.RiskScenarioAssessment, error) {
	var assessment models.RiskScenarioAssessment
	err := tx.Where("asset_id = ? AND scenario_id = ?", assetID, scenarioID).
		First(&assessment).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		assessment = models.RiskScenarioAssessment{AssetID: assetID, ScenarioID: scenarioID}
	case err != nil:
		return nil, err
	}
	return &assessment, nil
}
