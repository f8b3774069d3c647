package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gems/internal/models"
	"gems/internal/risk"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// движок один на процесс, выставляется в main — по образцу глобального
// database.DB
var engine *risk.Engine

func SetEngine(e *risk.Engine) {
	engine = e
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// fail переводит ошибки движка в HTTP-статусы: нарушение инварианта — 400,
// отсутствующая сущность — 404, остальное — 500.
func fail(c *gin.Context, err error) {
	switch {
	case risk.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func currentUserID(c *gin.Context) *uint {
	if uVal, ok := c.Get("CurrentUser"); ok {
		if u, ok := uVal.(models.User); ok {
			id := u.ID
			return &id
		}
	}
	return nil
}
