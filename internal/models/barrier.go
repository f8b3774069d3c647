package models

import (
	"time"

	"gorm.io/gorm"
)

type BarrierCategory struct {
	gorm.Model
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`

	// барьеры категории могут разделяться несколькими объектами
	// (например, ИТ-системы)
	IsShareable bool `gorm:"default:false"`
}

// Barrier — защитный барьер (физический, процедурный или технический).
// PerformanceAdjustment — накопленная деградация по зарегистрированным
// инцидентам: 1.0 — номинал, ниже — барьер работает хуже.
type Barrier struct {
	gorm.Model
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`

	CategoryID uint
	Category   BarrierCategory

	PerformanceAdjustment float64 `gorm:"default:1.0"` // 0.1..1.0
	IsActive              bool    `gorm:"default:true"`

	RiskTypes    []RiskType    `gorm:"many2many:barrier_risk_types"`
	RiskSubtypes []RiskSubtype `gorm:"many2many:barrier_risk_subtypes"`

	EffectivenessScores []BarrierEffectivenessScore
}

// BarrierEffectivenessScore — оценка барьера по пяти способностям для
// конкретной категории риска. Пустой подтип означает "на весь тип риска".
type BarrierEffectivenessScore struct {
	gorm.Model
	BarrierID uint `gorm:"not null;uniqueIndex:idx_effectiveness_key"`

	RiskTypeID uint `gorm:"not null;uniqueIndex:idx_effectiveness_key"`
	RiskType   RiskType

	RiskSubtypeID *uint `gorm:"uniqueIndex:idx_effectiveness_key"`
	RiskSubtype   *RiskSubtype

	// кэш взвешенной суммы способностей, пересчитывается при записи
	OverallEffectivenessScore float64

	PreventiveCapability int // 1..10
	DetectionCapability  int // 1..10
	ResponseCapability   int // 1..10
	Reliability          int // 1..10
	Coverage             int // 1..10
}

type ImpactRating string

const (
	ImpactNone        ImpactRating = "NO_IMPACT"
	ImpactMinimal     ImpactRating = "MINIMAL"
	ImpactSubstantial ImpactRating = "SUBSTANTIAL"
	ImpactMajor       ImpactRating = "MAJOR"
	ImpactCompromised ImpactRating = "COMPROMISED"
)

type IssueStatus string

const (
	IssueOpen       IssueStatus = "OPEN"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueResolved   IssueStatus = "RESOLVED"
	IssueClosed     IssueStatus = "CLOSED"
)

// BarrierIssueReport — сообщение об эксплуатационной проблеме барьера.
// Создание отчёта деградирует performance_adjustment барьера и запускает
// пересчёт по всем затронутым объектам.
type BarrierIssueReport struct {
	gorm.Model
	BarrierID uint `gorm:"not null"`
	Barrier   Barrier

	ReportedByID *uint
	ReportedBy   *User

	Description  string       `gorm:"type:text"`
	Status       IssueStatus  `gorm:"type:varchar(20);not null;default:'OPEN'"`
	ImpactRating ImpactRating `gorm:"type:varchar(20);not null;default:'NO_IMPACT'"`

	ResolvedAt      *time.Time
	ResolutionNotes string `gorm:"type:text"`

	AffectedAssets []Asset `gorm:"many2many:issue_affected_assets"`
}
