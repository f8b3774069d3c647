package risk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gems/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// отдельная in-memory база на тест, общая для всех соединений пула
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Continent{},
		&models.Country{},
		&models.RiskType{},
		&models.RiskSubtype{},
		&models.AssetType{},
		&models.Asset{},
		&models.AssetLink{},
		&models.AssetCriticalityQuestion{},
		&models.AssetCriticalityAnswer{},
		&models.AssetVulnerabilityQuestion{},
		&models.AssetVulnerabilityAnswer{},
		&models.BarrierCategory{},
		&models.Barrier{},
		&models.BarrierEffectivenessScore{},
		&models.BarrierIssueReport{},
		&models.Scenario{},
		&models.ScenarioQuestion{},
		&models.QuestionChoice{},
		&models.AssetScenarioAnswer{},
		&models.RiskScenarioAssessment{},
		&models.BaselineThreatAssessment{},
		&models.FinalRiskMatrix{},
		&models.RiskLog{},
	))
	return db
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return New(newTestDB(t), log, opts)
}

func seedTaxonomy(t *testing.T, db *gorm.DB, typeName, subtypeName string) (models.RiskType, models.RiskSubtype) {
	t.Helper()
	rt := models.RiskType{Name: typeName}
	require.NoError(t, db.Create(&rt).Error)
	st := models.RiskSubtype{RiskTypeID: rt.ID, Name: subtypeName, Description: subtypeName}
	require.NoError(t, db.Create(&st).Error)
	return rt, st
}

func seedCountry(t *testing.T, db *gorm.DB, name string, operated bool) models.Country {
	t.Helper()
	continent := models.Continent{Name: name + " continent"}
	require.NoError(t, db.Create(&continent).Error)
	country := models.Country{Name: name, ContinentID: continent.ID, CompanyOperated: operated}
	require.NoError(t, db.Create(&country).Error)
	return country
}

func seedAssetType(t *testing.T, db *gorm.DB) models.AssetType {
	t.Helper()
	at := models.AssetType{Name: "facility-" + t.Name()}
	require.NoError(t, db.Create(&at).Error)
	return at
}

func seedScenario(t *testing.T, db *gorm.DB, name string, subtypes []models.RiskSubtype, barriers []models.Barrier) models.Scenario {
	t.Helper()
	scenario := models.Scenario{
		Name:         name,
		Description:  name,
		RiskSubtypes: subtypes,
		Barriers:     barriers,
	}
	require.NoError(t, db.Create(&scenario).Error)
	return scenario
}

func addScenarioQuestion(t *testing.T, db *gorm.DB, scenarioID uint, kind models.QuestionKind, weight float64) models.ScenarioQuestion {
	t.Helper()
	q := models.ScenarioQuestion{
		ScenarioID:   scenarioID,
		Text:         fmt.Sprintf("%s question %f", kind, weight),
		QuestionType: kind,
		Weight:       weight,
	}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func addChoice(t *testing.T, db *gorm.DB, questionID uint, score int) models.QuestionChoice {
	t.Helper()
	choice := models.QuestionChoice{
		QuestionID: questionID,
		Text:       fmt.Sprintf("choice scoring %d", score),
		Score:      score,
	}
	require.NoError(t, db.Create(&choice).Error)
	return choice
}

func seedBarrier(t *testing.T, db *gorm.DB, name string, riskTypes []models.RiskType, subtypes []models.RiskSubtype) models.Barrier {
	t.Helper()
	category := models.BarrierCategory{Name: "category " + name}
	require.NoError(t, db.Create(&category).Error)
	barrier := models.Barrier{
		Name:                  name,
		Description:           name,
		CategoryID:            category.ID,
		PerformanceAdjustment: 1.0,
		IsActive:              true,
		RiskTypes:             riskTypes,
		RiskSubtypes:          subtypes,
	}
	require.NoError(t, db.Create(&barrier).Error)
	return barrier
}

// rateAll выставляет все пять способностей в один балл: итоговая
// эффективность тогда равна этому баллу.
func rateAll(t *testing.T, e *Engine, barrierID, riskTypeID uint, subtypeID *uint, score int) {
	t.Helper()
	_, err := e.RateBarrierCapability(barrierID, riskTypeID, subtypeID,
		score, score, score, score, score)
	require.NoError(t, err)
}

func reloadBarrier(t *testing.T, db *gorm.DB, id uint) models.Barrier {
	t.Helper()
	var barrier models.Barrier
	require.NoError(t, db.First(&barrier, id).Error)
	return barrier
}

func findAssessment(t *testing.T, db *gorm.DB, assetID, scenarioID uint) models.RiskScenarioAssessment {
	t.Helper()
	var assessment models.RiskScenarioAssessment
	require.NoError(t, db.Where("asset_id = ? AND scenario_id = ?", assetID, scenarioID).
		First(&assessment).Error)
	return assessment
}

func findOverallMatrix(t *testing.T, db *gorm.DB, assetID, riskTypeID uint) models.FinalRiskMatrix {
	t.Helper()
	var matrix models.FinalRiskMatrix
	require.NoError(t, db.Where("asset_id = ? AND matrix_type = ? AND risk_type_id = ?",
		assetID, models.MatrixOverall, riskTypeID).First(&matrix).Error)
	return matrix
}
