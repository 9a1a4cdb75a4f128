package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/urlsync/internal/application/catalog"
	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/erp/urlsync/internal/infrastructure/cache"
	"github.com/erp/urlsync/internal/infrastructure/config"
	"github.com/erp/urlsync/internal/infrastructure/event"
	"github.com/erp/urlsync/internal/infrastructure/logger"
	"github.com/erp/urlsync/internal/infrastructure/persistence"
	"github.com/erp/urlsync/internal/infrastructure/telemetry"
	"github.com/erp/urlsync/internal/interfaces/http/handler"
	"github.com/erp/urlsync/internal/interfaces/http/middleware"
	"github.com/erp/urlsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowQueryThreshold = 200 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting urlsync server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewRegenerationMetrics(nil)
	if err != nil {
		log.Fatal("Failed to create regeneration metrics", zap.Error(err))
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowQueryThreshold)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Postgres schemas are owned by cmd/migrate
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	rewriteRepo := persistence.NewGormURLRewriteRepository(db.DB)
	urlPathRepo := persistence.NewGormURLPathRepository(db.DB)

	// Redis backs batch locking and event dedup when reachable
	coord := cache.NewCoordination(ctx, cfg.Redis, log)
	log.Info("Regeneration coordination ready", zap.Bool("distributed", coord.Distributed()))
	defer func() {
		if err := coord.Close(); err != nil {
			log.Warn("Failed to close coordination store", zap.Error(err))
		}
	}()

	// URL regeneration pipeline
	collector := catalogapp.NewSubtreeCollector(categoryRepo)
	purger := catalogapp.NewStaleURLPurger(rewriteRepo, urlPathRepo, log)
	regenerator := catalogapp.NewURLRegenerator(categoryRepo, rewriteRepo, urlPathRepo, log).
		WithSuffix(cfg.Regeneration.CategoryURLSuffix)
	orchestrator := catalogapp.NewRegenerationOrchestrator(
		collector,
		purger,
		regenerator,
		storeRepo,
		catalogapp.OrchestratorConfig{
			Workers:      cfg.Regeneration.Workers,
			BatchTimeout: cfg.Regeneration.BatchTimeout,
			LockTTL:      cfg.Regeneration.LockTTL,
		},
		log,
	).WithRecorder(metrics).WithLocker(coord.Locker)

	// Event bus: moves and async regenerate requests run after the response was sent
	eventBus := event.NewInMemoryEventBus(log)
	regenerationHandler := event.NewIdempotentHandler(
		catalogapp.NewRegenerationHandler(orchestrator, log),
		coord.Idempotency,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Regeneration.EventDedupTTL,
			Enabled: cfg.Regeneration.EventDedupEnabled,
		}),
	)
	eventBus.Subscribe(regenerationHandler, catalog.EventTypeCategoryMoved, catalog.EventTypeCategoriesImported)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	mover := catalogapp.NewCategoryMover(categoryRepo, log).
		WithEventPublisher(eventBus).
		WithRecorder(metrics)
	rewriteQuery := catalogapp.NewURLRewriteQueryService(rewriteRepo)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(log, middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewHealthHandler(db))
	r.Register(handler.NewCategoryHandler(mover))
	r.Register(handler.NewURLRewriteHandler(orchestrator, rewriteQuery).WithEventPublisher(eventBus))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
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

	// Let regenerations triggered by the last moves finish
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	stats := regenerationHandler.GetMetrics().Stats()
	log.Info("Regeneration events handled",
		zap.Int64("processed", stats.EventsProcessed),
		zap.Int64("duplicate", stats.EventsDuplicate),
		zap.Int64("failed", stats.EventsFailed),
	)

	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}

	log.Info("Server exited")
}
