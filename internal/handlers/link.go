package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type linkForm struct {
	Name        string `json:"name" binding:"required"`
	AssetIDs    []uint `json:"asset_ids" binding:"required"`
	RiskTypeIDs []uint `json:"risk_type_ids"`
	BarrierIDs  []uint `json:"barrier_ids"`
}

func CreateAssetLink(c *gin.Context) {
	var form linkForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	link, err := engine.CreateLink(form.Name, form.AssetIDs, form.RiskTypeIDs, form.BarrierIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"link": link})
}

func PropagateAssetLink(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := engine.Propagate(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "propagated"})
}
