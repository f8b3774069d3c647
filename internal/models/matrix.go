package models

import (
	"time"

	"gorm.io/gorm"
)

type MatrixType string

const (
	// сводная матрица по типу риска
	MatrixOverall MatrixType = "OVERALL"
	// разбивка по подтипу риска
	MatrixSubRisk MatrixType = "SUB_RISK"
	// разбивка по барьеру
	MatrixBarrier MatrixType = "BARRIER"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// FinalRiskMatrix — итоговая строка риска. Три уровня детализации
// различаются явным тегом MatrixType и соответствующим внешним ключом,
// а не перегрузкой одного поля.
type FinalRiskMatrix struct {
	gorm.Model
	AssetID uint `gorm:"not null;uniqueIndex:idx_matrix_key"`
	Asset   Asset

	MatrixType MatrixType `gorm:"type:varchar(20);not null;uniqueIndex:idx_matrix_key"`

	RiskTypeID *uint `gorm:"uniqueIndex:idx_matrix_key"`
	RiskType   *RiskType

	RiskSubtypeID *uint `gorm:"uniqueIndex:idx_matrix_key"`
	RiskSubtype   *RiskSubtype

	BarrierID *uint `gorm:"uniqueIndex:idx_matrix_key"`
	Barrier   *Barrier

	ResidualRiskScore float64
	RiskLevel         RiskLevel `gorm:"type:varchar(20);not null"`

	// снапшоты вкладов для объяснимости расчёта
	SubRiskDetails JSONDoc `gorm:"type:text"`
	BarrierDetails JSONMap `gorm:"type:text"`

	DateGenerated time.Time
}

// ScenarioContribution — вклад одного сценария в матрицу (для SubRiskDetails).
type ScenarioContribution struct {
	Scenario      string  `json:"scenario"`
	Likelihood    float64 `json:"likelihood"`
	Impact        float64 `json:"impact"`
	Vulnerability float64 `json:"vulnerability"`
	ResidualRisk  float64 `json:"residual_risk"`
}

type SubRiskDetails struct {
	ScenarioAssessments []ScenarioContribution `json:"scenario_assessments"`
	BTAScore            *int                   `json:"bta_score"`
}

// RiskLog — журнал: по одной записи на каждую запись сводной матрицы,
// только добавление. Фиксирует четыре входных величины и результат.
type RiskLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	AssetID uint `gorm:"not null;index"`
	Asset   Asset

	RiskTypeID uint `gorm:"not null"`
	RiskType   RiskType

	BTAScore           int
	VulnerabilityScore int
	CriticalityScore   int
	ResidualRiskScore  float64
}
