package api

import (
	"github.com/Conceptual-Machines/magda-melody/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-melody/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-melody/internal/config"
	"github.com/Conceptual-Machines/magda-melody/internal/metrics"
	"github.com/Conceptual-Machines/magda-melody/internal/middleware"
	"github.com/Conceptual-Machines/magda-melody/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the router hands to its handlers. DB may be nil.
type Deps struct {
	DB       *gorm.DB
	Melodies *services.MelodyService
	Recorder metrics.Recorder
}

func SetupRouter(deps Deps, cfg *config.Config, version string) *gin.Engine {
	if deps.Recorder == nil {
		deps.Recorder = metrics.Multi{}
	}

	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Melodies)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		melodyHandler := handlers.NewMelodyHandler(deps.Melodies)
		v1.GET("/strategies", melodyHandler.Strategies)
		v1.POST("/harmony", melodyHandler.Harmony)
		v1.POST("/evaluate", melodyHandler.Evaluate)

		v1.POST("/melodies", melodyHandler.Generate)
		v1.POST("/melodies/batch", melodyHandler.Batch)
		v1.POST("/melodies/fragments", melodyHandler.Fragments)
		v1.GET("/melodies/:id", melodyHandler.Get)
		v1.GET("/melodies/:id/midi", melodyHandler.MIDI)
	}

	return router
}

func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsJWTMode():
		return middleware.JWTAuth(cfg)
	case cfg.IsGatewayMode():
		return apimiddleware.GatewayAuth()
	default:
		return apimiddleware.NoAuth()
	}
}
