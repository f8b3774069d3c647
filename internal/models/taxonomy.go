package models

import "gorm.io/gorm"

// Таксономия рисков: тип -> подтип. Имена типов глобально уникальны,
// имена подтипов уникальны внутри своего типа.

type RiskType struct {
	gorm.Model
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`

	Subtypes []RiskSubtype
}

type RiskSubtype struct {
	gorm.Model
	RiskTypeID uint `gorm:"not null;uniqueIndex:idx_subtype_name_type"`
	RiskType   RiskType

	Name        string `gorm:"size:100;not null;uniqueIndex:idx_subtype_name_type"`
	Description string `gorm:"type:text"`
}
