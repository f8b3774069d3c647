package handlers

import (
	"net/http"

	"gems/internal/database"
	"gems/internal/models"

	"github.com/gin-gonic/gin"
)

func ListAssets(c *gin.Context) {
	var assets []models.Asset
	if err := database.DB.Preload("AssetType").Preload("Country").
		Order("name asc").Find(&assets).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

type assetForm struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AssetTypeID uint    `json:"asset_type_id" binding:"required"`
	CountryID   uint    `json:"country_id" binding:"required"`
	ScenarioIDs []uint  `json:"scenario_ids"`
	BarrierIDs  []uint  `json:"barrier_ids"`
}

func CreateAsset(c *gin.Context) {
	var form assetForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	asset := models.Asset{
		Name:        form.Name,
		Description: form.Description,
		Latitude:    form.Latitude,
		Longitude:   form.Longitude,
		AssetTypeID: form.AssetTypeID,
		CountryID:   form.CountryID,
	}
	if len(form.ScenarioIDs) > 0 {
		if err := database.DB.Find(&asset.Scenarios, form.ScenarioIDs).Error; err != nil {
			fail(c, err)
			return
		}
	}
	if len(form.BarrierIDs) > 0 {
		if err := database.DB.Find(&asset.Barriers, form.BarrierIDs).Error; err != nil {
			fail(c, err)
			return
		}
	}

	if err := engine.CreateAsset(&asset); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

func GetAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.DB.Preload("AssetType").Preload("Country").
		Preload("Scenarios").Preload("Barriers").Preload("Barriers.Category").
		First(&asset, id).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// GetAssetRiskData — три семейства матриц объекта плюс журнал для трендов.
func GetAssetRiskData(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var asset models.Asset
	if err := database.DB.First(&asset, id).Error; err != nil {
		fail(c, err)
		return
	}

	var overall, subRisk, barrier []models.FinalRiskMatrix
	if err := database.DB.Preload("RiskType").
		Where("asset_id = ? AND matrix_type = ?", id, models.MatrixOverall).
		Find(&overall).Error; err != nil {
		fail(c, err)
		return
	}
	if err := database.DB.Preload("RiskSubtype").
		Where("asset_id = ? AND matrix_type = ?", id, models.MatrixSubRisk).
		Find(&subRisk).Error; err != nil {
		fail(c, err)
		return
	}
	if err := database.DB.Preload("Barrier").
		Where("asset_id = ? AND matrix_type = ?", id, models.MatrixBarrier).
		Find(&barrier).Error; err != nil {
		fail(c, err)
		return
	}

	var logs []models.RiskLog
	if err := database.DB.Where("asset_id = ?", id).
		Order("created_at desc").Limit(100).Find(&logs).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matrices": gin.H{
			"overall":          overall,
			"risk_specific":    subRisk,
			"barrier_specific": barrier,
		},
		"risk_logs": logs,
	})
}

// GenerateAssetMatrices — внешняя точка пересчёта матриц объекта.
func GenerateAssetMatrices(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	matrices, err := engine.GenerateMatrices(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matrices": matrices})
}

type questionnaireAnswerForm struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Choice     string `json:"choice" binding:"required"`
}

func SubmitCriticalityAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form questionnaireAnswerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := engine.SubmitCriticalityAnswer(id, form.QuestionID, form.Choice); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func SubmitVulnerabilityAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form questionnaireAnswerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := engine.SubmitVulnerabilityAnswer(id, form.QuestionID, form.Choice); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}
