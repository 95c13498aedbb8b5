package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	identityapp "github.com/erp/pos/internal/application/identity"
	inventoryapp "github.com/erp/pos/internal/application/inventory"
	partnerapp "github.com/erp/pos/internal/application/partner"
	_ "github.com/erp/pos/docs"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/event"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/infrastructure/scheduler"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/erp/pos/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			POS Inventory API
//	@version		1.0
//	@description	Stock ledger for a multi-store point of sale: stock in, stock out, transfers and reconciliation.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers install themselves as otel globals when enabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileContention: cfg.Profiling.Contention,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	log := loggerProvider.Bridge(baseLog, zapcore.InfoLevel)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POS inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
		zap.Bool("profiling", profiler.IsEnabled()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(true))
	if err := cacheFactory.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	idempotencyStore := cacheFactory.CreateIdempotencyStore()
	defer func() {
		_ = idempotencyStore.Close()
	}()
	stockCache := cacheFactory.CreateStockLevelCache(cfg.Inventory.StockCacheTTL)

	// Repositories
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	transactionRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	transferRepo := persistence.NewGormStockTransferRepository(db.DB)
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Application services
	ledgerService := inventoryapp.NewStockLedgerService(
		inventoryRepo, transactionRepo, transferRepo,
		persistence.NewGormTransactionScope(db.DB),
	)
	storeService := partnerapp.NewStoreService(storeRepo)
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	productService := catalogapp.NewProductService(productRepo)
	userService := identityapp.NewUserService(userRepo)

	// Event bus: handlers run synchronously after the ledger write commits
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyMetrics := &event.IdempotencyMetrics{}
	subscribe := func(h shared.EventHandler) {
		eventBus.Subscribe(event.NewIdempotentHandler(h, idempotencyStore, log,
			event.WithIdempotencyMetrics(idempotencyMetrics)))
	}

	if stockCache != nil {
		ledgerService.SetStockLevelCache(stockCache)
		subscribe(inventoryapp.NewStockCacheInvalidator(stockCache, log))
	}
	subscribe(inventoryapp.NewLowStockAlertHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log)))

	stockMetrics, err := telemetry.NewStockMetrics(telemetry.StockMetricsConfig{
		Meter:    meterProvider.Meter("pos-inventory/stock"),
		Logger:   log,
		Provider: telemetry.NewGormLowStockProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize stock metrics", zap.Error(err))
	}
	subscribe(telemetry.NewStockMetricsHandler(stockMetrics))
	if meterProvider.IsEnabled() {
		stockMetrics.StartPeriodicCollection(ctx, cfg.Inventory.LowStockCheckInterval)
	}
	defer stockMetrics.Stop()

	// Nightly balance-vs-ledger audit; drift is logged and exported, not repaired
	var (
		reconcileScheduler *scheduler.Scheduler
		reconcileTrigger   *scheduler.CronTrigger
	)
	if cfg.Inventory.ReconcileEnabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Inventory.ReconcileSchedule)
		if err != nil {
			log.Fatal("Invalid reconciliation schedule", zap.Error(err))
		}
		reconcileScheduler = scheduler.NewScheduler(
			scheduler.DefaultSchedulerConfig(),
			scheduler.NewReconciliationExecutor(inventoryRepo, stockMetrics, log),
			log,
		)
		if err := reconcileScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
		triggerCfg := scheduler.DefaultCronTriggerConfig()
		triggerCfg.Hour, triggerCfg.Minute = hour, minute
		reconcileTrigger = scheduler.NewCronTrigger(triggerCfg, reconcileScheduler, inventoryRepo, log)
		if err := reconcileTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation trigger", zap.Error(err))
		}
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	ledgerService.SetEventPublisher(eventBus)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Global middleware, outermost first. RequestID precedes the logger,
	// which reads the ID from the gin context.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("pos-inventory/http"), log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		log.Info("Swagger UI enabled", zap.String("path", "/swagger/index.html"))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Logger = log
	if cfg.JWT.Enabled() {
		tenantCfg.Verifier = auth.NewJWTService(cfg.JWT)
		log.Info("Caller identity taken from bearer tokens", zap.String("issuer", cfg.JWT.Issuer))
	} else {
		log.Warn("jwt.secret not set, trusting X-Tenant-ID and X-User-ID headers")
	}
	r.Use(middleware.TenantMiddlewareWithConfig(tenantCfg))

	if cfg.HTTP.RateLimitEnabled {
		var limiter middleware.Limiter
		if client := cacheFactory.Client(); client != nil {
			limiter = middleware.NewRedisRateLimiter(client, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		} else {
			memLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			defer memLimiter.Close()
			limiter = memLimiter
		}
		r.Use(middleware.RateLimit(limiter, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Bool("shared", cacheFactory.UsingRedis()),
		)
	}
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	healthChecks := []handler.HealthCheck{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if client := cacheFactory.Client(); client != nil {
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}

	router.RegisterAPI(engine, r, router.Handlers{
		Stock:    handler.NewStockHandler(ledgerService).WithImporter(inventoryapp.NewStockImportService(ledgerService)),
		Stores:   handler.NewStoreHandler(storeService),
		Supplier: handler.NewSupplierHandler(supplierService),
		Products: handler.NewProductHandler(productService),
		Users:    handler.NewUserHandler(userService),
		System:   handler.NewSystemHandler(cfg.App.Name, version, healthChecks...),
	}, middleware.Idempotency(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		TTL:    cfg.Inventory.IdempotencyTTL,
		Logger: log,
	}))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if reconcileTrigger != nil {
		if err := reconcileTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping reconciliation trigger", zap.Error(err))
		}
	}
	if reconcileScheduler != nil {
		if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping reconciliation scheduler", zap.Error(err))
		}
	}

	stats := idempotencyMetrics.Stats()
	log.Info("Event handler idempotency",
		zap.Int64("processed", stats.EventsProcessed),
		zap.Int64("duplicates", stats.EventsDuplicate),
		zap.Int64("failed", stats.EventsFailed),
	)

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	// Flush telemetry last so shutdown logs and spans are exported
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
