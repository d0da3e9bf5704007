package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	catalogapp "github.com/fulfillment/stock-engine/internal/application/catalog"
	inventoryapp "github.com/fulfillment/stock-engine/internal/application/inventory"
	warehouseapp "github.com/fulfillment/stock-engine/internal/application/warehouse"
	"github.com/fulfillment/stock-engine/internal/infrastructure/cache"
	"github.com/fulfillment/stock-engine/internal/infrastructure/config"
	"github.com/fulfillment/stock-engine/internal/infrastructure/event"
	"github.com/fulfillment/stock-engine/internal/infrastructure/logger"
	"github.com/fulfillment/stock-engine/internal/infrastructure/notify"
	"github.com/fulfillment/stock-engine/internal/infrastructure/persistence"
	"github.com/fulfillment/stock-engine/internal/infrastructure/scheduler"
	"github.com/fulfillment/stock-engine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stock engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	ctx := context.Background()

	// Initialize telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log)
	dbTracing := cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog, dbTracing)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories and the transaction scope
	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize the order deduction guard. Redis when configured so
	// several instances share the marks, in-memory otherwise.
	var guard inventoryapp.OrderDeductionGuard
	if cfg.Redis.Enabled {
		redisGuard, err := cache.NewRedisOrderGuard(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Deduction.GuardTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisGuard.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		guard = redisGuard
		log.Info("Order deduction guard backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memGuard := cache.NewInMemoryOrderGuard(cfg.Deduction.GuardTTL)
		defer func() {
			_ = memGuard.Close()
		}()
		guard = memGuard
		log.Info("Order deduction guard backed by memory")
	}

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	warehouseService := warehouseapp.NewService(warehouseRepo)

	alertService := inventoryapp.NewAlertService(scope)
	alertService.SetWindows(cfg.Alerting.ExpiryWindow, cfg.Alerting.CriticalWindow)
	alertService.SetEventPublisher(eventBus)
	alertService.SetNotifier(notify.NewLogNotifier(log))

	stockLevelService := inventoryapp.NewStockLevelService(scope)
	stockLevelService.SetMaxRetries(cfg.Deduction.MaxRetries)

	deductionService := inventoryapp.NewDeductionService(scope, productService, warehouseService, alertService, guard)
	deductionService.SetEventPublisher(eventBus)
	deductionService.SetMaxRetries(cfg.Deduction.MaxRetries)
	deductionService.SetDefaultActor(cfg.Deduction.DefaultActor)

	// Bridge order lifecycle events to the deduction orchestrator
	orderHandler := inventoryapp.NewOrderStatusHandler(deductionService, log)
	eventBus.Subscribe(orderHandler)
	log.Info("Order status handler registered", zap.Strings("event_types", orderHandler.EventTypes()))

	// Initialize the sweep scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		sweepExecutor := scheduler.NewSweepExecutor(alertService, stockLevelService, log)
		sched := scheduler.NewScheduler(scheduler.Config{
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, sweepExecutor, log)
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
			ExpirySweepEvery: cfg.Scheduler.ExpirySweepEvery,
			LowStockEvery:    cfg.Scheduler.LowStockEvery,
			ReconcileEvery:   cfg.Scheduler.ReconcileEvery,
		}, sched, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep trigger", zap.Error(err))
			}
		}()
		log.Info("Sweep scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	log.Info("Stock engine started")

	// Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down", zap.String("signal", sig.String()))
}
