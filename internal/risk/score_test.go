package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gems/internal/models"
)

func critQuestion(scores [5]int) *models.AssetCriticalityQuestion {
	return &models.AssetCriticalityQuestion{
		QuestionText: "How critical is the asset?",
		Choice1:      "negligible", Score1: scores[0],
		Choice2: "low", Score2: scores[1],
		Choice3: "moderate", Score3: scores[2],
		Choice4: "high", Score4: scores[3],
		Choice5: "extreme", Score5: scores[4],
	}
}

func vulnQuestion(riskTypeID uint, scores [5]int) *models.AssetVulnerabilityQuestion {
	return &models.AssetVulnerabilityQuestion{
		QuestionText: "How exposed is the asset?",
		RiskTypeID:   riskTypeID,
		Choice1:      "negligible", Score1: scores[0],
		Choice2: "low", Score2: scores[1],
		Choice3: "moderate", Score3: scores[2],
		Choice4: "high", Score4: scores[3],
		Choice5: "extreme", Score5: scores[4],
	}
}

func TestAssetScoresDefaultToOne(t *testing.T) {
	e := newTestEngine(t, Options{})

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	require.NoError(t, e.RecomputeAsset(asset.ID))

	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 1, got.CriticalityScore)
	assert.Equal(t, 1, got.VulnerabilityScore)
}

func TestCriticalityAnswerRecomputesScore(t *testing.T) {
	e := newTestEngine(t, Options{})

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	q1 := critQuestion([5]int{1, 2, 5, 9, 10})
	require.NoError(t, e.CreateCriticalityQuestion(q1))
	q2 := critQuestion([5]int{1, 2, 5, 9, 10})
	require.NoError(t, e.CreateCriticalityQuestion(q2))

	require.NoError(t, e.SubmitCriticalityAnswer(asset.ID, q1.ID, "high")) // 9
	require.NoError(t, e.SubmitCriticalityAnswer(asset.ID, q2.ID, "low"))  // 2

	// округлённое среднее: (9+2)/2 = 5.5 -> 6
	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 6, got.CriticalityScore)
}

func TestVulnerabilityAnswerRecomputesScore(t *testing.T) {
	e := newTestEngine(t, Options{})
	rt, _ := seedTaxonomy(t, e.db, "Terrorism", "Bombing")

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	q := vulnQuestion(rt.ID, [5]int{1, 3, 5, 7, 10})
	require.NoError(t, e.CreateVulnerabilityQuestion(q))

	require.NoError(t, e.SubmitVulnerabilityAnswer(asset.ID, q.ID, "extreme"))

	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 10, got.VulnerabilityScore)
}

func TestUnknownChoiceRejected(t *testing.T) {
	e := newTestEngine(t, Options{})

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	q := critQuestion([5]int{1, 2, 5, 9, 10})
	require.NoError(t, e.CreateCriticalityQuestion(q))
	require.NoError(t, e.SubmitCriticalityAnswer(asset.ID, q.ID, "high"))

	// неизвестный вариант отклоняется и не трогает предыдущий ответ
	err := e.SubmitCriticalityAnswer(asset.ID, q.ID, "somewhat high")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 9, got.CriticalityScore)
}

func TestResubmitUpdatesSameAnswer(t *testing.T) {
	e := newTestEngine(t, Options{})

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	q := critQuestion([5]int{1, 2, 5, 9, 10})
	require.NoError(t, e.CreateCriticalityQuestion(q))

	require.NoError(t, e.SubmitCriticalityAnswer(asset.ID, q.ID, "low"))
	require.NoError(t, e.SubmitCriticalityAnswer(asset.ID, q.ID, "extreme"))

	var answers []models.AssetCriticalityAnswer
	require.NoError(t, e.db.
		Where("asset_id = ? AND question_id = ?", asset.ID, q.ID).
		Find(&answers).Error)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].SelectedScore)
	assert.Equal(t, 10, *answers[0].SelectedScore)

	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 10, got.CriticalityScore)
}

func TestNewQuestionSeedsBlankAnswers(t *testing.T) {
	e := newTestEngine(t, Options{})

	asset := models.Asset{Name: "Warehouse"}
	require.NoError(t, e.CreateAsset(&asset))

	q := critQuestion([5]int{1, 2, 5, 9, 10})
	require.NoError(t, e.CreateCriticalityQuestion(q))

	var answer models.AssetCriticalityAnswer
	require.NoError(t, e.db.
		Where("asset_id = ? AND question_id = ?", asset.ID, q.ID).
		First(&answer).Error)
	assert.Nil(t, answer.SelectedScore)

	// пустые ответы в среднее не входят
	require.NoError(t, e.RecomputeAsset(asset.ID))
	var got models.Asset
	require.NoError(t, e.db.First(&got, asset.ID).Error)
	assert.Equal(t, 1, got.CriticalityScore)
}

func TestQuestionScoreValidation(t *testing.T) {
	e := newTestEngine(t, Options{})

	err := e.CreateCriticalityQuestion(critQuestion([5]int{0, 2, 5, 9, 10}))
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = e.CreateCriticalityQuestion(critQuestion([5]int{1, 2, 5, 9, 11}))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
