package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gems/internal/models"
)

func TestWeightedKindScores(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	scenario := seedScenario(t, e.db, "Truck bomb at gate", []models.RiskSubtype{st}, nil)

	q1 := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 2)
	c1 := addChoice(t, e.db, q1.ID, 8)
	q2 := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	c2 := addChoice(t, e.db, q2.ID, 5)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))

	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, q1.ID, c1.ID))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, q2.ID, c2.ID))

	got := findAssessment(t, e.db, asset.ID, scenario.ID)
	// (8*2 + 5*1) / 3 = 7.0
	assert.InDelta(t, 7.0, got.LikelihoodScore, 1e-9)
	// виды без ответов получают середину шкалы
	assert.InDelta(t, 5.0, got.ImpactScore, 1e-9)
	assert.InDelta(t, 5.0, got.VulnerabilityScore, 1e-9)
}

func TestResidualRiskWithoutBarriers(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	scenario := seedScenario(t, e.db, "Truck bomb at gate", []models.RiskSubtype{st}, nil)

	ql := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	cl := addChoice(t, e.db, ql.ID, 7)
	qi := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionImpact, 1)
	ci := addChoice(t, e.db, qi.ID, 9)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, ql.ID, cl.ID))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, qi.ID, ci.ID))

	got := findAssessment(t, e.db, asset.ID, scenario.ID)
	// кубический корень из 7*9*5, без барьеров демпфирования нет
	want := round2(math.Cbrt(7 * 9 * 5))
	assert.InDelta(t, want, got.ResidualRiskScore, 1e-9)
	assert.InDelta(t, 6.8, got.ResidualRiskScore, 0.005)
}

func TestResidualRiskDampenedByBarrier(t *testing.T) {
	e := newTestEngine(t, Options{})
	rt, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	barrier := seedBarrier(t, e.db, "Vehicle checkpoint", []models.RiskType{rt}, nil)
	rateAll(t, e, barrier.ID, rt.ID, nil, 4) // эффективность ровно 4.0

	scenario := seedScenario(t, e.db, "Truck bomb at gate",
		[]models.RiskSubtype{st}, []models.Barrier{barrier})
	ql := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	cl := addChoice(t, e.db, ql.ID, 7)
	qi := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionImpact, 1)
	ci := addChoice(t, e.db, qi.ID, 9)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, ql.ID, cl.ID))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, qi.ID, ci.ID))

	got := findAssessment(t, e.db, asset.ID, scenario.ID)

	base := math.Cbrt(7 * 9 * 5)
	assert.InDelta(t, round2(base/5), got.ResidualRiskScore, 1e-9) // 1.36
	assert.Less(t, got.ResidualRiskScore, base)
	assert.Greater(t, got.ResidualRiskScore, 0.0)

	require.Len(t, got.BarrierEffectiveness, 1)
	for _, eff := range got.BarrierEffectiveness {
		assert.InDelta(t, 4.0, eff, 1e-9)
	}
}

func TestBarrierWithoutScoresDoesNotDampen(t *testing.T) {
	e := newTestEngine(t, Options{})
	rt, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	barrier := seedBarrier(t, e.db, "Unrated gate", []models.RiskType{rt}, nil)

	scenario := seedScenario(t, e.db, "Truck bomb at gate",
		[]models.RiskSubtype{st}, []models.Barrier{barrier})
	ql := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	cl := addChoice(t, e.db, ql.ID, 7)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, ql.ID, cl.ID))

	got := findAssessment(t, e.db, asset.ID, scenario.ID)
	assert.Empty(t, got.BarrierEffectiveness)
	assert.InDelta(t, round2(math.Cbrt(7*5*5)), got.ResidualRiskScore, 1e-9)
}

func TestSubmitScenarioAnswerValidation(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	scenario := seedScenario(t, e.db, "Truck bomb at gate", []models.RiskSubtype{st}, nil)
	other := seedScenario(t, e.db, "Arson in storage", []models.RiskSubtype{st}, nil)

	q := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	c := addChoice(t, e.db, q.ID, 7)
	foreignQ := addScenarioQuestion(t, e.db, other.ID, models.QuestionLikelihood, 1)
	foreignC := addChoice(t, e.db, foreignQ.ID, 3)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))

	// вопрос чужого сценария
	err := e.SubmitScenarioAnswer(asset.ID, scenario.ID, foreignQ.ID, foreignC.ID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// вариант чужого вопроса
	err = e.SubmitScenarioAnswer(asset.ID, scenario.ID, q.ID, foreignC.ID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, q.ID, c.ID))
}

func TestAssessScenarioIdempotent(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, st := seedTaxonomy(t, e.db, "Terrorism", "Bombing")
	scenario := seedScenario(t, e.db, "Truck bomb at gate", []models.RiskSubtype{st}, nil)
	q := addScenarioQuestion(t, e.db, scenario.ID, models.QuestionLikelihood, 1)
	c := addChoice(t, e.db, q.ID, 7)

	asset := models.Asset{Name: "HQ", Scenarios: []models.Scenario{scenario}}
	require.NoError(t, e.CreateAsset(&asset))
	require.NoError(t, e.SubmitScenarioAnswer(asset.ID, scenario.ID, q.ID, c.ID))

	first, err := e.AssessScenario(asset.ID, scenario.ID)
	require.NoError(t, err)
	second, err := e.AssessScenario(asset.ID, scenario.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, first.ResidualRiskScore, second.ResidualRiskScore, 1e-9)

	var count int64
	require.NoError(t, e.db.Model(&models.RiskScenarioAssessment{}).
		Where("asset_id = ? AND scenario_id = ?", asset.ID, scenario.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
