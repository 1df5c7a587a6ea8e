package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		stats := v1.Group("/stats")
		{
			stats.GET("", handler.GetStats)
			stats.GET("/monthly", handler.GetMonthlyStats)
		}

		prs := v1.Group("/prs")
		{
			prs.GET("", handler.ListPRs)
			prs.GET("/:number", handler.GetPR)
		}

		v1.GET("/crawl/status", handler.GetCrawlStatus)
	}

	return router
}
