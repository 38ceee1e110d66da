package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/promo-dispatch/internal/api/handlers"
	"github.com/andresuchdata/promo-dispatch/internal/api/middleware"
)

type Services struct {
	Analysis handlers.AnalysisService
}

type Options struct {
	AllowedOrigins []string
	MaxUploadMB    int
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))
	if opts.MaxUploadMB > 0 {
		router.MaxMultipartMemory = int64(opts.MaxUploadMB) << 20
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Analysis != nil {
		analysisHandler := handlers.NewAnalysisHandler(services.Analysis, opts.MaxUploadMB)
		analysisGroup := apiGroup.Group("/analysis")
		{
			analysisGroup.POST("", analysisHandler.Analyze)
			analysisGroup.POST("/objects", analysisHandler.AnalyzeObjects)
			analysisGroup.GET("/:id", analysisHandler.GetReport)
			analysisGroup.DELETE("/:id", analysisHandler.DeleteReport)
			analysisGroup.GET("/:id/export", analysisHandler.DownloadExport)
			analysisGroup.POST("/:id/export", analysisHandler.UploadExport)
			analysisGroup.GET("/:id/charts", analysisHandler.GetCharts)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
