package models

import "gorm.io/gorm"

type Continent struct {
	gorm.Model
	Name string `gorm:"size:100;uniqueIndex;not null"`
}

// Country — страна расположения объектов. CompanyOperated отмечает страны
// присутствия компании: для них автоматически заводятся базовые оценки угроз.
type Country struct {
	gorm.Model
	Name string `gorm:"size:100;uniqueIndex;not null"`
	Code string `gorm:"size:3"`

	ContinentID uint
	Continent   Continent

	CompanyOperated bool `gorm:"default:false"`

	// произвольные геоданные для карты на фронтенде
	GeoData JSONDoc `gorm:"type:text"`
}
