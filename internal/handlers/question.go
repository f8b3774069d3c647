package handlers

import (
	"net/http"

	"gems/internal/models"

	"github.com/gin-gonic/gin"
)

type fiveChoiceForm struct {
	QuestionText string `json:"question_text" binding:"required"`
	RiskTypeID   uint   `json:"risk_type_id"`

	Choice1 string `json:"choice1" binding:"required"`
	Score1  int    `json:"score1" binding:"required"`
	Choice2 string `json:"choice2" binding:"required"`
	Score2  int    `json:"score2" binding:"required"`
	Choice3 string `json:"choice3" binding:"required"`
	Score3  int    `json:"score3" binding:"required"`
	Choice4 string `json:"choice4" binding:"required"`
	Score4  int    `json:"score4" binding:"required"`
	Choice5 string `json:"choice5" binding:"required"`
	Score5  int    `json:"score5" binding:"required"`
}

func CreateCriticalityQuestion(c *gin.Context) {
	var form fiveChoiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	q := models.AssetCriticalityQuestion{
		QuestionText: form.QuestionText,
		Choice1:      form.Choice1, Score1: form.Score1,
		Choice2: form.Choice2, Score2: form.Score2,
		Choice3: form.Choice3, Score3: form.Score3,
		Choice4: form.Choice4, Score4: form.Score4,
		Choice5: form.Choice5, Score5: form.Score5,
	}
	if err := engine.CreateCriticalityQuestion(&q); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"question": q})
}

func CreateVulnerabilityQuestion(c *gin.Context) {
	var form fiveChoiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if form.RiskTypeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "risk_type_id is required"})
		return
	}

	q := models.AssetVulnerabilityQuestion{
		QuestionText: form.QuestionText,
		RiskTypeID:   form.RiskTypeID,
		Choice1:      form.Choice1, Score1: form.Score1,
		Choice2: form.Choice2, Score2: form.Score2,
		Choice3: form.Choice3, Score3: form.Score3,
		Choice4: form.Choice4, Score4: form.Score4,
		Choice5: form.Choice5, Score5: form.Score5,
	}
	if err := engine.CreateVulnerabilityQuestion(&q); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"question": q})
}
