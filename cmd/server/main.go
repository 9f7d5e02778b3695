package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	currencyapp "github.com/erp/receivables/internal/application/currency"
	dashboardapp "github.com/erp/receivables/internal/application/dashboard"
	"github.com/erp/receivables/internal/application/reconciliation"
	savedviewapp "github.com/erp/receivables/internal/application/savedview"
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/auth"
	"github.com/erp/receivables/internal/infrastructure/cache"
	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/infrastructure/event"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/infrastructure/migration"
	"github.com/erp/receivables/internal/infrastructure/persistence"
	"github.com/erp/receivables/internal/infrastructure/storage"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/erp/receivables/internal/interfaces/http/handler"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/erp/receivables/internal/interfaces/http/router"
	"github.com/erp/receivables/migrations"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/erp/receivables/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Receivables API
//	@version		1.0
//	@description	Installment receivables: dashboard queries, receipt reconciliation and status overrides

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/receivables

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	migrate := flag.Bool("migrate", false, "apply pending schema migrations before serving")
	flag.Parse()

	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
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

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName

	// Telemetry providers. Each is a no-op when disabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.NewBridgedLogger(log, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    serviceName,
		LoggerProvider: loggerProvider,
		Level:          logger.ParseLevel(cfg.Telemetry.LogsLevel),
	}))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiler.Enabled,
		ServerAddress:     cfg.Profiler.ServerAddress,
		ApplicationName:   serviceName,
		BasicAuthUser:     cfg.Profiler.BasicAuthUser,
		BasicAuthPassword: cfg.Profiler.BasicAuthPassword,
		ProfileTypes:      cfg.Profiler.ProfileTypes,
		MutexProfileRate:  cfg.Profiler.MutexProfileRate,
		BlockProfileRate:  cfg.Profiler.BlockProfileRate,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiler.Enabled && cfg.Profiler.SpanProfiles && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link span profiles", zap.Error(err))
		}
	}

	log.Info("Starting receivables service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if *migrate {
		if err := applyMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	metrics, err := telemetry.NewReceivablesMetrics(meterProvider.Meter(serviceName))
	if err != nil {
		log.Fatal("Failed to create metrics", zap.Error(err))
	}

	// Repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	overrideRepo := persistence.NewGormStatusOverrideRepository(db.DB)
	savedViewRepo := persistence.NewGormSavedViewRepository(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	attachments, err := storage.NewAttachmentStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to create attachment store", zap.Error(err))
	}

	// Events stay in-process unless an AMQP broker is configured
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.AMQP.URL != "" {
		serializer := event.NewEventSerializer()
		event.RegisterAllEvents(serializer)
		publisher, err := event.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, serializer, log)
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Error closing AMQP publisher", zap.Error(err))
			}
		}()
		eventBus.Subscribe(publisher)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	seeds, fallback, reference, err := currencySettings(cfg.Currency)
	if err != nil {
		log.Fatal("Invalid currency configuration", zap.Error(err))
	}
	rates := currencyapp.NewRateProvider(rateRepo, currencyapp.RateProviderConfig{
		Seeds:     seeds,
		Fallback:  fallback,
		Reference: reference,
		CacheTTL:  cfg.Currency.CacheTTL,
		Logger:    log,
		Metrics:   metrics,
	})
	if err := rates.Seed(ctx); err != nil {
		log.Fatal("Failed to seed exchange rates", zap.Error(err))
	}

	// Application services
	reconciliationService := reconciliation.NewService(reconciliation.ServiceConfig{
		Receipts:    receiptRepo,
		Overrides:   overrideRepo,
		Rates:       rates,
		Attachments: attachments,
		Idempotency: idempotencyStore,
		IdempotencyConfig: shared.IdempotencyConfig{
			Enabled: cfg.Idempotency.Enabled,
			TTL:     cfg.Idempotency.TTL,
		},
		Events:  eventBus,
		Metrics: metrics,
		Logger:  log,
	})
	queryService := dashboardapp.NewQueryService(dashboardapp.QueryServiceConfig{
		Contracts: contractRepo,
		Rates:     rates,
		Metrics:   metrics,
		Logger:    log,
	})
	savedViewService := savedviewapp.NewService(savedViewRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT, cfg.Identity)

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:   serviceName,
		Mode:          ginMode(cfg.App.Env),
		HTTP:          cfg.HTTP,
		Tracing:       tracerProvider.IsEnabled(),
		MeterProvider: meterProvider,
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine.GET("/health", handler.NewHealthHandler(db, version).Health)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(cfg.Swagger, middleware.Auth(jwtService)),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
		log.Info("Swagger UI enabled", zap.Bool("require_auth", cfg.Swagger.RequireAuth))
	}

	router.NewRouter(engine,
		router.WithGroupMiddleware(router.APIMiddleware(jwtService, limiter, cfg.Profiler.Enabled)...),
	).Register(
		handler.NewDashboardHandler(queryService),
		handler.NewReceiptHandler(reconciliationService),
		handler.NewExchangeRateHandler(rates),
		handler.NewSavedViewHandler(savedViewService),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func applyMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared pool
	return m.Up()
}

// currencySettings converts the configured rates and reference currencies
func currencySettings(cfg config.CurrencyConfig) ([]currency.Rate, valueobject.Currency, valueobject.Currency, error) {
	seeds := make([]currency.Rate, 0, len(cfg.Rates))
	for _, r := range cfg.Rates {
		code, err := valueobject.ParseCurrency(r.Code)
		if err != nil {
			return nil, "", "", fmt.Errorf("currency.rates: %w", err)
		}
		seeds = append(seeds, currency.Rate{
			Code:     code,
			Fixed:    decimal.NewFromFloat(r.Fixed),
			Floating: decimal.NewFromFloat(r.Floating),
			IsBase:   r.IsBase,
		})
	}
	fallback, err := valueobject.ParseCurrency(cfg.Fallback)
	if err != nil {
		return nil, "", "", fmt.Errorf("currency.fallback: %w", err)
	}
	reference, err := valueobject.ParseCurrency(cfg.Reference)
	if err != nil {
		return nil, "", "", fmt.Errorf("currency.reference: %w", err)
	}
	return seeds, fallback, reference, nil
}

func ginMode(env string) string {
	if env == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
