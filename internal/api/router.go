package api

import (
	"log/slog"
	"net/http"

	"ecobeehub/internal/api/handlers"
	"ecobeehub/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	limiter "github.com/sethvargo/go-limiter"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Nodes        handlers.NodeStore
	Orchestrator handlers.Orchestrator
	Auth         handlers.AuthState
	Pin          handlers.PinStarter
	Notices      handlers.NoticeLister
	Gatherer     prometheus.Gatherer // Optional: /metrics is only served when set
	TriggerLimit limiter.Store       // Optional: limits poll, discover and PIN triggers
	APIKey       string
	Logger       *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler(config.Auth)
	router.GET("/health", healthHandler.GetHealth)

	if config.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKey(config.APIKey))
	{
		// Triggers reach the vendor API, so they share a rate limit
		triggers := v1.Group("")
		if config.TriggerLimit != nil {
			triggers.Use(middleware.RateLimit(config.TriggerLimit, logger))
		}

		// Nodes endpoints
		nodesHandler := handlers.NewNodesHandler(config.Nodes, logger)
		v1.GET("/nodes", nodesHandler.ListNodes)
		v1.GET("/nodes/:address", nodesHandler.GetNode)

		// Thermostat endpoints
		thermostatsHandler := handlers.NewThermostatsHandler(config.Orchestrator, logger)
		triggers.POST("/poll", thermostatsHandler.Poll)
		triggers.POST("/discover", thermostatsHandler.Discover)
		v1.POST("/thermostats/:id", thermostatsHandler.UpdateThermostat)

		// Auth endpoints
		authHandler := handlers.NewAuthHandler(config.Auth, config.Pin, logger)
		v1.GET("/auth/status", authHandler.GetStatus)
		triggers.POST("/auth/pin", authHandler.StartPin)

		// Notices endpoints
		noticesHandler := handlers.NewNoticesHandler(config.Notices, logger)
		v1.GET("/notices", noticesHandler.ListNotices)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
			"code":  "NOT_FOUND",
		})
	})

	return router
}
