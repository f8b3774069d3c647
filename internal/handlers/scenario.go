package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type scenarioAnswerForm struct {
	ScenarioID uint `json:"scenario_id" binding:"required"`
	QuestionID uint `json:"question_id" binding:"required"`
	ChoiceID   uint `json:"choice_id" binding:"required"`
}

func SubmitScenarioAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form scenarioAnswerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := engine.SubmitScenarioAnswer(id, form.ScenarioID, form.QuestionID, form.ChoiceID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func AssessScenario(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	scenarioID, ok := paramID(c, "scenario_id")
	if !ok {
		return
	}

	assessment, err := engine.AssessScenario(id, scenarioID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": assessment})
}
