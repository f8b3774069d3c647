package handlers

import (
	"net/http"
	"time"

	"gems/internal/database"
	"gems/internal/models"

	"github.com/gin-gonic/gin"
)

// Справочники и базовые оценки угроз.

type riskTypeForm struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateRiskType(c *gin.Context) {
	var form riskTypeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	rt := models.RiskType{Name: form.Name, Description: form.Description}
	if err := engine.CreateRiskType(&rt); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"risk_type": rt})
}

type riskSubtypeForm struct {
	RiskTypeID  uint   `json:"risk_type_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateRiskSubtype(c *gin.Context) {
	var form riskSubtypeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	subtype := models.RiskSubtype{
		RiskTypeID:  form.RiskTypeID,
		Name:        form.Name,
		Description: form.Description,
	}
	if err := database.DB.Create(&subtype).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"risk_subtype": subtype})
}

type continentForm struct {
	Name string `json:"name" binding:"required"`
}

func CreateContinent(c *gin.Context) {
	var form continentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	continent := models.Continent{Name: form.Name}
	if err := database.DB.Create(&continent).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"continent": continent})
}

type countryForm struct {
	Name            string `json:"name" binding:"required"`
	Code            string `json:"code"`
	ContinentID     uint   `json:"continent_id" binding:"required"`
	CompanyOperated bool   `json:"company_operated"`
}

func CreateCountry(c *gin.Context) {
	var form countryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	country := models.Country{
		Name:            form.Name,
		Code:            form.Code,
		ContinentID:     form.ContinentID,
		CompanyOperated: form.CompanyOperated,
	}
	if err := engine.CreateCountry(&country); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"country": country})
}

type baselineForm struct {
	RiskTypeID     uint   `json:"risk_type_id" binding:"required"`
	CountryID      uint   `json:"country_id" binding:"required"`
	Score          int    `json:"score" binding:"required"`
	DateAssessed   string `json:"date_assessed"`
	ImpactOnAssets *bool  `json:"impact_on_assets"`
	Notes          string `json:"notes"`
}

func SetBaselineThreat(c *gin.Context) {
	var form baselineForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	date := time.Now()
	if form.DateAssessed != "" {
		parsed, err := time.Parse("2006-01-02", form.DateAssessed)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_assessed, want YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	impacts := true
	if form.ImpactOnAssets != nil {
		impacts = *form.ImpactOnAssets
	}

	bta, err := engine.SetBaselineThreat(form.RiskTypeID, form.CountryID,
		form.Score, date, impacts, form.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"baseline_threat": bta})
}
