package server

import (
	"net/http"

	"gems/internal/config"
	"gems/internal/handlers"
	"gems/internal/middleware"
	"gems/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("gems_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	r.POST("/api/register", handlers.Register)
	r.POST("/api/login", handlers.Login)
	r.POST("/api/logout", handlers.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	// СПРАВОЧНИКИ (таксономия, география, опросники) — только админ
	admin := api.Group("/")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.POST("/risk-types", handlers.CreateRiskType)
	admin.POST("/risk-subtypes", handlers.CreateRiskSubtype)
	admin.POST("/continents", handlers.CreateContinent)
	admin.POST("/countries", handlers.CreateCountry)
	admin.POST("/questions/criticality", handlers.CreateCriticalityQuestion)
	admin.POST("/questions/vulnerability", handlers.CreateVulnerabilityQuestion)
	admin.POST("/barriers", handlers.CreateBarrier)

	// ОБЪЕКТЫ ЗАЩИТЫ
	api.GET("/assets", handlers.ListAssets)
	api.GET("/assets/:id", handlers.GetAsset)
	api.GET("/assets/:id/risk-data", handlers.GetAssetRiskData)

	api.POST("/assets",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateAsset,
	)

	// опросники и сценарии — аналитик
	api.POST("/assets/:id/answers/criticality",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SubmitCriticalityAnswer,
	)
	api.POST("/assets/:id/answers/vulnerability",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SubmitVulnerabilityAnswer,
	)
	api.POST("/assets/:id/answers/scenario",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SubmitScenarioAnswer,
	)
	api.POST("/assets/:id/scenarios/:scenario_id/assess",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.AssessScenario,
	)
	api.POST("/assets/:id/matrices",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.GenerateAssetMatrices,
	)

	// БАРЬЕРЫ — инженер
	api.POST("/barriers/:id/effectiveness",
		middleware.RequireRole(models.RoleAdmin, models.RoleEngineer),
		handlers.RateBarrier,
	)
	api.GET("/barriers/:id/effectiveness/:risk_type_id", handlers.GetBarrierEffectiveness)
	api.POST("/barriers/:id/issues",
		middleware.RequireRole(models.RoleAdmin, models.RoleEngineer),
		handlers.ReportBarrierIssue,
	)
	api.POST("/issues/:id/resolve",
		middleware.RequireRole(models.RoleAdmin, models.RoleEngineer),
		handlers.ResolveBarrierIssue,
	)

	// БАЗОВЫЕ ОЦЕНКИ УГРОЗ
	api.POST("/baseline-threats",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SetBaselineThreat,
	)

	// СВЯЗИ ОБЪЕКТОВ
	api.POST("/links",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateAssetLink,
	)
	api.POST("/links/:id/propagate",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.PropagateAssetLink,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
