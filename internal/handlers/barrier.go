package handlers

import (
	"net/http"

	"gems/internal/database"
	"gems/internal/models"

	"github.com/gin-gonic/gin"
)

type barrierForm struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	CategoryID     uint   `json:"category_id" binding:"required"`
	RiskTypeIDs    []uint `json:"risk_type_ids"`
	RiskSubtypeIDs []uint `json:"risk_subtype_ids"`
}

func CreateBarrier(c *gin.Context) {
	var form barrierForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	barrier := models.Barrier{
		Name:                  form.Name,
		Description:           form.Description,
		CategoryID:            form.CategoryID,
		PerformanceAdjustment: 1.0,
		IsActive:              true,
	}
	if len(form.RiskTypeIDs) > 0 {
		if err := database.DB.Find(&barrier.RiskTypes, form.RiskTypeIDs).Error; err != nil {
			fail(c, err)
			return
		}
	}
	if len(form.RiskSubtypeIDs) > 0 {
		if err := database.DB.Find(&barrier.RiskSubtypes, form.RiskSubtypeIDs).Error; err != nil {
			fail(c, err)
			return
		}
	}

	if err := database.DB.Create(&barrier).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"barrier": barrier})
}

type capabilityForm struct {
	RiskTypeID    uint  `json:"risk_type_id" binding:"required"`
	RiskSubtypeID *uint `json:"risk_subtype_id"`
	Preventive    int   `json:"preventive" binding:"required"`
	Detection     int   `json:"detection" binding:"required"`
	Response      int   `json:"response" binding:"required"`
	Reliability   int   `json:"reliability" binding:"required"`
	Coverage      int   `json:"coverage" binding:"required"`
}

func RateBarrier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form capabilityForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	score, err := engine.RateBarrierCapability(id, form.RiskTypeID, form.RiskSubtypeID,
		form.Preventive, form.Detection, form.Response, form.Reliability, form.Coverage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"effectiveness_score": score})
}

// GetBarrierEffectiveness — эффективность барьера против конкретного
// типа риска с учётом деградации.
func GetBarrierEffectiveness(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	riskTypeID, ok := paramID(c, "risk_type_id")
	if !ok {
		return
	}

	score, err := engine.RiskCategoryEffectiveness(id, riskTypeID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barrier_id": id, "risk_type_id": riskTypeID, "effectiveness": score})
}

type issueForm struct {
	AffectedAssetIDs []uint `json:"affected_asset_ids"`
	ImpactRating     string `json:"impact_rating" binding:"required"`
	Description      string `json:"description"`
}

func ReportBarrierIssue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form issueForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	report, err := engine.ReportIssue(id, form.AffectedAssetIDs,
		models.ImpactRating(form.ImpactRating), form.Description, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue": report})
}

type resolveForm struct {
	Notes string `json:"notes"`
}

func ResolveBarrierIssue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form resolveForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := engine.ResolveIssue(id, form.Notes); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}
