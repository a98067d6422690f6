package api

import (
	"github.com/gin-gonic/gin"

	"github.com/arlen/lectern/internal/api/handler"
	"github.com/arlen/lectern/internal/api/middleware"
	"github.com/arlen/lectern/internal/config"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/repository"
	"github.com/arlen/lectern/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	ingestService *service.IngestService,
	lectureRepo *repository.LectureRepository,
	slideRepo *repository.SlideRepository,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	ingestionHandler := handler.NewIngestionHandler(ingestService)
	adminHandler := handler.NewAdminHandler(ingestService, log)
	lectureHandler := handler.NewLectureHandler(lectureRepo, slideRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Broker push delivery
	r.POST("/jobs/ingestion", ingestionHandler.HandleIngestionJob)

	// Admin operations
	admin := r.Group("/admin")
	{
		admin.POST("/reingest", adminHandler.TriggerReingest)
		admin.GET("/reingest/status", adminHandler.GetReingestStatus)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/lectures", lectureHandler.ListLectures)
		v1.GET("/lectures/:id", lectureHandler.GetLecture)
		v1.GET("/lectures/:id/slides", lectureHandler.ListSlides)
	}

	return r
}
