// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/core/idempotency"
	"lotledger/internal/domain/audit"
	"lotledger/internal/domain/auth"
	"lotledger/internal/domain/fifo"
	"lotledger/internal/infrastructure/http/v1/handlers"
	"lotledger/internal/infrastructure/http/v1/middleware"
	"lotledger/internal/infrastructure/lock"
	"lotledger/internal/infrastructure/metrics"
	"lotledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for the login endpoint
	AuthService *auth.Service

	Ledger  *fifo.Ledger
	History audit.Reader

	// Locker serializes mutations per product
	Locker lock.Locker

	// IdempotencyStore enables the idempotency middleware when set
	IdempotencyStore idempotency.Store

	// Metrics is optional; /metrics is mounted only when set
	Metrics *metrics.Metrics

	HealthChecks map[string]handlers.Pinger

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerLotRoutes(protected, cfg)
		registerConsumptionRoutes(protected, cfg)
		registerValuationRoutes(protected, cfg)
		registerAdminRoutes(protected, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.AuthService)
	rg.POST("/auth/login", authHandler.Login)
}

func registerLotRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewLotHandler(handlers.NewBaseHandler(), cfg.Ledger, cfg.History)

	lots := rg.Group("/lots")
	{
		lots.POST("", h.Create)
		lots.GET("/expiring", h.Expiring)
		lots.GET("/expired", h.Expired)
		lots.POST("/:id/expire", h.Expire)
		lots.GET("/:id/history", h.History)
	}

	products := rg.Group("/products/:id")
	{
		products.GET("/lots", h.ActiveLots)
		products.GET("/cost", h.Cost)
	}
}

func registerConsumptionRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewConsumptionHandler(handlers.NewBaseHandler(), cfg.Ledger, cfg.Locker)

	rg.POST("/consumptions", h.Consume)
	rg.GET("/consumptions/:kind/:ref", h.Get)
	rg.DELETE("/consumptions/:kind/:ref", h.Revert)
	rg.POST("/returns", h.Return)
}

func registerValuationRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewValuationHandler(handlers.NewBaseHandler(), cfg.Ledger.Reporter)

	rg.GET("/valuation", h.Total)
	rg.GET("/valuation/products/:id", h.Product)
	rg.GET("/cogs", h.PeriodCOGS)
	rg.GET("/cogs/shifts/:id", h.ShiftCOGS)
}

// registerAdminRoutes mounts bulk operations restricted to administrators.
func registerAdminRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewLotHandler(handlers.NewBaseHandler(), cfg.Ledger, cfg.History)

	admin := rg.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/lots/expire-overdue", h.Sweep)
		admin.POST("/migrations/initial-lots", h.MigrateLegacyStock)
	}
}
