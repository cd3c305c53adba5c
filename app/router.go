package app

import (
	"lifeloop/handler"
	"lifeloop/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = 1 << 20

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(maxRequestBody))

	health := handler.NewHealthHandler(a.checks)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	triggers := handler.NewTriggerHandler(a.Reset, a.Analytics)
	jobs := router.Group("/api/triggers")
	jobs.Use(middleware.TriggerAuth(a.Config.TriggerSecret))
	{
		jobs.POST("/reset/daily", triggers.ResetDaily)
		jobs.POST("/reset/weekly", triggers.ResetWeekly)
		jobs.POST("/reset/monthly", triggers.ResetMonthly)

		jobs.POST("/analytics/daily", triggers.ResetDailyAnalytics)
		jobs.POST("/analytics/weekly", triggers.ResetWeeklyAnalytics)
		jobs.POST("/analytics/monthly", triggers.ResetMonthlyAnalytics)
		jobs.POST("/analytics/yearly", triggers.ResetYearlyAnalytics)
	}

	items := handler.NewItemsHandler(a.Completion)
	stats := handler.NewAnalyticsHandler(a.Analytics)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(a.Config.JWTSecret))
	{
		protected.POST("/items/:id/complete", items.Complete)
		protected.POST("/items/:id/uncomplete", items.Uncomplete)
		protected.POST("/routines/:id/complete", items.CompleteRoutine)
		protected.DELETE("/items/:id", items.Delete)

		protected.GET("/analytics", middleware.CacheControlMiddleware(a.Config.AnalyticsCacheTTL), stats.Get)
		protected.POST("/analytics/rebuild", stats.Rebuild)
	}

	return router
}
