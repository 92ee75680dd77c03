package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	currencyapp "github.com/storefront/backend/internal/application/currency"
	pricingapp "github.com/storefront/backend/internal/application/pricing"
	"github.com/storefront/backend/internal/domain/discount"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	calculators "github.com/storefront/backend/internal/infrastructure/pricing"
	catalogsearch "github.com/storefront/backend/internal/infrastructure/search"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Catalog search, product pricing and currency endpoints of the storefront
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg, cfg.Telemetry.ServiceName)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if lp.IsEnabled() {
		log, err = logger.New(logCfg, cfg.Telemetry.ServiceName, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: lp,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	runErr := run(cfg, log)
	if runErr != nil {
		log.Error("Storefront stopped with error", zap.Error(runErr))
	} else {
		log.Info("Server exited gracefully")
	}

	_ = log.Sync()
	_ = lp.Shutdown(context.Background())
	if runErr != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	meter := mp.Meter("storefront")
	metrics, err := telemetry.NewStorefrontMetrics(meter)
	if err != nil {
		return err
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
	)
	dbOpts := []persistence.Option{persistence.WithLogger(gormLog)}
	if cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracingCfg.DBName = cfg.Database.DBName
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracingCfg, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if mp.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		reg, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB)
		if err != nil {
			return err
		}
		defer func() { _ = reg.Unregister() }()
	}

	// Currency cache
	currencyCache, err := cache.NewCurrencyCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		return err
	}
	defer func() {
		if err := currencyCache.Close(); err != nil {
			log.Error("Error closing currency cache", zap.Error(err))
		}
	}()

	// Repositories
	visitor := catalogsearch.NewCatalogSearchQueryVisitor(catalogsearch.VisitorConfig{
		IgnoreACL:        cfg.Catalog.IgnoreACL,
		IgnoreMultiStore: cfg.Catalog.IgnoreMultiStore,
	})
	productRepo := persistence.NewGormProductRepository(db.DB, visitor)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	currencyRepo := persistence.NewGormCurrencyRepository(db.DB)
	discountRepo := persistence.NewGormDiscountRepository(db.DB)
	discountUsageRepo := persistence.NewGormDiscountUsageRepository(db.DB)

	// Application services
	registry, err := calculators.NewRegistryWithDefaults()
	if err != nil {
		return err
	}
	currencyService := currencyapp.NewService(currencyRepo, currencyCache, cfg.Catalog.PrimaryCurrency, metrics)
	priceService := pricingapp.NewPriceService(
		productRepo,
		discountRepo,
		discount.NewValidator(discountUsageRepo),
		currencyService,
		registry.Pipeline(),
		pricingapp.Config{
			RoundPrices:    cfg.Catalog.RoundPrices,
			DefaultStoreID: cfg.Catalog.DefaultStoreID,
		},
		metrics,
	)
	searchService := catalogapp.NewSearchService(productRepo, catalogapp.SearchConfig{
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
		DefaultStoreID:  cfg.Catalog.DefaultStoreID,
	}, metrics, catalogapp.WithCategories(categoryRepo))

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	deps := router.Dependencies{
		Logger:      log,
		JWT:         auth.NewJWTService(cfg.JWT),
		Metrics:     metrics,
		RateLimiter: limiter,
	}
	if tp.IsEnabled() {
		deps.TracerProvider = otel.GetTracerProvider()
	}

	engine, err := router.NewEngine(cfg, deps, router.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.Ping,
		}),
		Catalog:  handler.NewCatalogHandler(searchService, priceService),
		Currency: handler.NewCurrencyHandler(currencyService),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
