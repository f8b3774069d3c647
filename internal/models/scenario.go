package models

import (
	"time"

	"gorm.io/gorm"
)

// Scenario — конкретное рисковое событие (теракт, кибервзлом и т.п.).
// Привязан к подтипам риска; барьеры — те, что считаются его митигирующими.
type Scenario struct {
	gorm.Model
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`

	RiskSubtypes []RiskSubtype `gorm:"many2many:scenario_risk_subtypes"`
	Barriers     []Barrier     `gorm:"many2many:scenario_barriers"`

	Questions []ScenarioQuestion
}

type QuestionKind string

const (
	QuestionLikelihood    QuestionKind = "LIKELIHOOD"
	QuestionImpact        QuestionKind = "IMPACT"
	QuestionVulnerability QuestionKind = "VULNERABILITY"
)

type ScenarioQuestion struct {
	gorm.Model
	ScenarioID uint `gorm:"not null"`

	Text         string       `gorm:"size:500;not null"`
	Description  string       `gorm:"type:text"`
	QuestionType QuestionKind `gorm:"type:varchar(20);not null"`
	Weight       float64      `gorm:"default:1.0"` // 0.1..10.0

	Choices []QuestionChoice `gorm:"foreignKey:QuestionID"`
}

type QuestionChoice struct {
	gorm.Model
	QuestionID uint `gorm:"not null"`

	Text        string `gorm:"size:200;not null"`
	Score       int    // 1..10
	Description string `gorm:"type:text"`
}

type AssetScenarioAnswer struct {
	gorm.Model
	AssetID uint `gorm:"not null;uniqueIndex:idx_scenario_answer_key"`
	Asset   Asset

	ScenarioID uint `gorm:"not null;uniqueIndex:idx_scenario_answer_key"`
	Scenario   Scenario

	QuestionID uint `gorm:"not null;uniqueIndex:idx_scenario_answer_key"`
	Question   ScenarioQuestion

	SelectedChoiceID uint
	SelectedChoice   QuestionChoice

	Notes string `gorm:"type:text"`
}

// RiskScenarioAssessment — производная оценка пары (объект, сценарий).
// BarrierEffectiveness — снапшот применённых эффективностей барьеров,
// чтобы расчёт можно было объяснить постфактум.
type RiskScenarioAssessment struct {
	gorm.Model
	AssetID uint `gorm:"not null;uniqueIndex:idx_assessment_key"`
	Asset   Asset

	ScenarioID uint `gorm:"not null;uniqueIndex:idx_assessment_key"`
	Scenario   Scenario

	LikelihoodScore    float64
	ImpactScore        float64
	VulnerabilityScore float64
	ResidualRiskScore  float64

	BarrierEffectiveness JSONMap `gorm:"type:text"`

	AssessmentDate time.Time
	Notes          string `gorm:"type:text"`
}

// BaselineThreatAssessment — внешняя базовая оценка угрозы по паре
// (тип риска, страна), датированная. Актуальной считается последняя по дате.
type BaselineThreatAssessment struct {
	gorm.Model
	RiskTypeID uint `gorm:"not null;uniqueIndex:idx_bta_key"`
	RiskType   RiskType

	CountryID uint `gorm:"not null;uniqueIndex:idx_bta_key"`
	Country   Country

	BaselineScore  int       `gorm:"default:5"` // 1..10
	DateAssessed   time.Time `gorm:"uniqueIndex:idx_bta_key"`
	ImpactOnAssets bool      `gorm:"default:true"`
	Notes          string    `gorm:"type:text"`
}
