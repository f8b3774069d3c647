package risk

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gems/internal/models"
)

// Опросники критичности/уязвимости: ответ выводит балл из выбранного
// варианта, после чего пересчитываются оценки объекта и его матрицы.

// SubmitCriticalityAnswer сохраняет ответ на вопрос критичности и запускает
// каскад пересчёта для объекта.
func (e *Engine) SubmitCriticalityAnswer(assetID, questionID uint, choice string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var question models.AssetCriticalityQuestion
		if err := tx.First(&question, questionID).Error; err != nil {
			return fmt.Errorf("criticality question %d: %w", questionID, err)
		}

		score, ok := question.ScoreFor(choice)
		if !ok {
			// неизвестный вариант — отклоняем, молча дефолт не подставляем
			return invalid("criticality answer", "selected_choice",
				fmt.Sprintf("choice %q does not match any question choice", choice))
		}

		var answer models.AssetCriticalityAnswer
		err := tx.Where("asset_id = ? AND question_id = ?", assetID, questionID).
			First(&answer).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			answer = models.AssetCriticalityAnswer{AssetID: assetID, QuestionID: questionID}
		case err != nil:
			return err
		}

		answer.SelectedChoice = choice
		answer.SelectedScore = &score
		if err := tx.Save(&answer).Error; err != nil {
			return err
		}

		return e.recomputeAsset(tx, assetID)
	})
}

// SubmitVulnerabilityAnswer — то же для вопроса уязвимости.
func (e *Engine) SubmitVulnerabilityAnswer(assetID, questionID uint, choice string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var question models.AssetVulnerabilityQuestion
		if err := tx.First(&question, questionID).Error; err != nil {
			return fmt.Errorf("vulnerability question %d: %w", questionID, err)
		}

		score, ok := question.ScoreFor(choice)
		if !ok {
			return invalid("vulnerability answer", "selected_choice",
				fmt.Sprintf("choice %q does not match any question choice", choice))
		}

		var answer models.AssetVulnerabilityAnswer
		err := tx.Where("asset_id = ? AND question_id = ?", assetID, questionID).
			First(&answer).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			answer = models.AssetVulnerabilityAnswer{AssetID: assetID, QuestionID: questionID}
		case err != nil:
			return err
		}

		answer.SelectedChoice = choice
		answer.SelectedScore = &score
		if err := tx.Save(&answer).Error; err != nil {
			return err
		}

		return e.recomputeAsset(tx, assetID)
	})
}

// recomputeAssetScores пересчитывает производные criticality/vulnerability:
// округлённое среднее баллов ответов, 1 — если ответов нет.
func (e *Engine) recomputeAssetScores(tx *gorm.DB, asset *models.Asset) error {
	crit, err := criticalityScore(tx, asset.ID)
	if err != nil {
		return err
	}
	vuln, err := vulnerabilityScore(tx, asset.ID)
	if err != nil {
		return err
	}

	asset.CriticalityScore = crit
	asset.VulnerabilityScore = vuln
	return tx.Model(&models.Asset{}).Where("id = ?", asset.ID).
		Updates(map[string]interface{}{
			"criticality_score":   crit,
			"vulnerability_score": vuln,
		}).Error
}

func criticalityScore(tx *gorm.DB, assetID uint) (int, error) {
	var answers []models.AssetCriticalityAnswer
	if err := tx.Where("asset_id = ?", assetID).Find(&answers).Error; err != nil {
		return 0, err
	}

	var scores []float64
	for _, a := range answers {
		if a.SelectedScore != nil {
			scores = append(scores, float64(*a.SelectedScore))
		}
	}
	if len(scores) == 0 {
		return 1, nil
	}
	return roundInt(mean(scores)), nil
}

func vulnerabilityScore(tx *gorm.DB, assetID uint) (int, error) {
	var answers []models.AssetVulnerabilityAnswer
	if err := tx.Where("asset_id = ?", assetID).Find(&answers).Error; err != nil {
		return 0, err
	}

	var scores []float64
	for _, a := range answers {
		if a.SelectedScore != nil {
			scores = append(scores, float64(*a.SelectedScore))
		}
	}
	if len(scores) == 0 {
		return 1, nil
	}
	return roundInt(mean(scores)), nil
}

// CreateCriticalityQuestion создаёт вопрос и заводит пустые ответы по всем
// существующим объектам.
func (e *Engine) CreateCriticalityQuestion(q *models.AssetCriticalityQuestion) error {
	if err := validateQuestionScores("criticality question",
		[5]int{q.Score1, q.Score2, q.Score3, q.Score4, q.Score5}); err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}

		var assetIDs []uint
		if err := tx.Model(&models.Asset{}).Pluck("id", &assetIDs).Error; err != nil {
			return err
		}
		for _, id := range assetIDs {
			blank := models.AssetCriticalityAnswer{AssetID: id, QuestionID: q.ID}
			if err := tx.Create(&blank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateVulnerabilityQuestion — то же для опросника уязвимости.
func (e *Engine) CreateVulnerabilityQuestion(q *models.AssetVulnerabilityQuestion) error {
	if err := validateQuestionScores("vulnerability question",
		[5]int{q.Score1, q.Score2, q.Score3, q.Score4, q.Score5}); err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}

		var assetIDs []uint
		if err := tx.Model(&models.Asset{}).Pluck("id", &assetIDs).Error; err != nil {
			return err
		}
		for _, id := range assetIDs {
			blank := models.AssetVulnerabilityAnswer{AssetID: id, QuestionID: q.ID}
			if err := tx.Create(&blank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func validateQuestionScores(entity string, scores [5]int) error {
	for i, s := range scores {
		if err := checkScore(entity, fmt.Sprintf("score%d", i+1), s); err != nil {
			return err
		}
	}
	return nil
}
