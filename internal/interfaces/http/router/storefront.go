package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers served by the storefront API
type Handlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Currency *handler.CurrencyHandler
}

// Dependencies are the cross-cutting services the middleware chain needs.
// Nil Metrics, TracerProvider or RateLimiter disable the matching middleware.
type Dependencies struct {
	Logger         *zap.Logger
	JWT            *auth.JWTService
	Metrics        *telemetry.StorefrontMetrics
	TracerProvider trace.TracerProvider
	RateLimiter    *middleware.RateLimiter
}

// NewEngine builds the gin engine with the global middleware chain, the
// health endpoint and the versioned storefront routes.
func NewEngine(cfg *config.Config, deps Dependencies, h Handlers) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	// Order matters: request ID first so every log line and error carries it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        deps.TracerProvider != nil,
		TracerProvider: deps.TracerProvider,
	}))
	engine.Use(middleware.HTTPMetrics(deps.Metrics))

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	api := []gin.HandlerFunc{}
	if deps.JWT != nil {
		api = append(api, middleware.OptionalCustomerAuth(deps.JWT, log))
	}
	api = append(api, middleware.SpanEnricher())
	if cfg.HTTP.RateLimitEnabled && deps.RateLimiter != nil {
		api = append(api, middleware.RateLimit(deps.RateLimiter))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.Catalog != nil {
		r.Register(NewDomainGroup("catalog", "/catalog").
			Use(api...).
			GET("/search", h.Catalog.Search).
			GET("/products/:id/price", h.Catalog.Price))
	}
	if h.Currency != nil {
		currencies := NewDomainGroup("currencies", "/currencies").
			Use(api...).
			GET("", h.Currency.List).
			POST("/exchange", h.Currency.Exchange)
		if deps.JWT != nil {
			currencies.PUT("/:code/rate", middleware.RequireRole(log, cfg.JWT.AdminRoleID), h.Currency.UpdateRate)
		}
		r.Register(currencies)
		r.Register(NewDomainGroup("money", "/money").
			Use(api...).
			POST("/allocate", h.Currency.Allocate))
	}
	r.Setup()

	engine.NoRoute(func(c *gin.Context) {
		(&handler.BaseHandler{}).NotFound(c, "Route not found")
	})

	return engine, nil
}
