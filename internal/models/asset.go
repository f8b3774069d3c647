package models

import "gorm.io/gorm"

type AssetType struct {
	gorm.Model
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
}

// Asset — объект защиты. Criticality/Vulnerability — производные оценки,
// пересчитываются движком по ответам на опросники, руками не правятся.
type Asset struct {
	gorm.Model
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`

	Latitude  float64
	Longitude float64

	AssetTypeID uint
	AssetType   AssetType

	CountryID uint
	Country   Country

	CriticalityScore   int `gorm:"default:1"` // 1..10
	VulnerabilityScore int `gorm:"default:1"` // 1..10

	Scenarios []Scenario `gorm:"many2many:asset_scenarios"`
	Barriers  []Barrier  `gorm:"many2many:asset_barriers"`
}

// AssetLink — группа объектов, между которыми распространяются изменения
// оценок по общим типам риска и общим барьерам. Сама по себе риском не является.
type AssetLink struct {
	gorm.Model
	Name string `gorm:"size:100;not null"`

	Assets         []Asset    `gorm:"many2many:asset_link_assets"`
	SharedRisks    []RiskType `gorm:"many2many:asset_link_risks"`
	SharedBarriers []Barrier  `gorm:"many2many:asset_link_barriers"`
}
