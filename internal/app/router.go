package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"doorstep/internal/handler"
	"doorstep/internal/middleware"
	"doorstep/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CatalogHandler   *handler.CatalogHandler
	MechanicHandler  *handler.MechanicHandler
	LeadHandler      *handler.LeadHandler
	TrackingHandler  *handler.TrackingHandler
	IdempotencyStore redis.IdempotencyStoreInterface // nil disables replay
	NewRelicApp      *newrelic.Application
	AllowedOrigins   []string
	Logger           *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.IdempotencyStore != nil {
		router.Use(middleware.Idempotency(deps.IdempotencyStore, deps.Logger))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{
			Reason:    "NOT_FOUND",
			Error:     "route not found",
			RequestID: middleware.GetRequestID(c),
		})
	})

	api := router.Group("/api")
	{
		services := api.Group("/services")
		{
			services.GET("", deps.CatalogHandler.GetAll)
			services.GET("/:vehicleType", deps.CatalogHandler.GetByVehicleType)
		}

		api.POST("/mechanics/search", deps.MechanicHandler.Search)
		api.POST("/leads", deps.LeadHandler.Create)

		track := api.Group("/track")
		{
			track.GET("/:trackingId", deps.TrackingHandler.Get)
			track.POST("/:trackingId/progress", deps.TrackingHandler.Progress)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/leads", deps.LeadHandler.GetAll)
			admin.PUT("/leads/:trackingId/status", deps.LeadHandler.UpdateStatus)
			admin.GET("/mechanics", deps.MechanicHandler.GetAll)
			admin.PUT("/mechanics/:id/active", deps.MechanicHandler.SetActive)
			admin.PUT("/mechanics/:id/slots", deps.MechanicHandler.SetSlots)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
