package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/matreq/backend/internal/application/identity"
	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/infrastructure/auth"
	"github.com/matreq/backend/internal/infrastructure/cache"
	"github.com/matreq/backend/internal/infrastructure/config"
	"github.com/matreq/backend/internal/infrastructure/event"
	csvimport "github.com/matreq/backend/internal/infrastructure/import"
	"github.com/matreq/backend/internal/infrastructure/logger"
	"github.com/matreq/backend/internal/infrastructure/migration"
	"github.com/matreq/backend/internal/infrastructure/persistence"
	"github.com/matreq/backend/internal/infrastructure/persistence/models"
	"github.com/matreq/backend/internal/infrastructure/rfc"
	"github.com/matreq/backend/internal/infrastructure/storage"
	"github.com/matreq/backend/internal/infrastructure/telemetry"
	"github.com/matreq/backend/internal/interfaces/http/handler"
	"github.com/matreq/backend/internal/interfaces/http/middleware"
	"github.com/matreq/backend/internal/interfaces/http/router"
	"github.com/matreq/backend/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Material Request API
//	@version		1.0
//	@description	Bulk material request upload, enrichment and order creation against enterprise backend systems.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	SessionToken
//	@in							header
//	@name						X-Session-Id

func main() {
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

	log.Info("Starting material request backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if level, err := zapcore.ParseLevel(cfg.Telemetry.LogsLevel); err == nil {
		log = loggerProvider.Bridge(log, level)
	} else {
		log.Warn("Invalid telemetry log level, OTLP log export disabled", zap.String("level", cfg.Telemetry.LogsLevel))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		MutexProfiling:  cfg.Telemetry.ProfilerMutex,
		BlockProfiling:  cfg.Telemetry.ProfilerBlock,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.SpanProfilesEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	pipelineMetrics, err := telemetry.NewPipelineMetrics(meterProvider.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to register pipeline metrics", zap.Error(err))
	}

	// Sessions
	store, err := cache.NewSessionStoreFactory(cfg.Session, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}

	cipher, err := newCredentialCipher(cfg.Session.EncryptionKey, log)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Enterprise gateways
	connector, err := rfc.NewConnector(toEnvironments(cfg.Environments), rfc.ConnectorOptions{
		CallTimeout:        cfg.Gateway.CallTimeout,
		MaxConcurrentCalls: cfg.Gateway.MaxConcurrentCalls,
		InsecureSkipVerify: cfg.Gateway.InsecureSkipVerify,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize gateways", zap.Error(err))
	}
	connector.SetPipelineMetrics(pipelineMetrics)

	// Submission ledger
	var (
		db          *persistence.Database
		submissions trade.SubmissionRepository
	)
	if cfg.Database.Enabled {
		db, err = openLedger(&cfg.Database, cfg.Log.Level, cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled, log)
		if err != nil {
			log.Fatal("Failed to open submission ledger", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		submissions = persistence.NewGormSubmissionRepository(db.DB)

		if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled && cfg.Telemetry.DBMetricsEnabled {
			dbMetrics, err := newDBMetrics(meterProvider, db, cfg.Telemetry.DBMetricsInterval, log)
			if err != nil {
				log.Warn("Failed to register database pool metrics", zap.Error(err))
			} else {
				dbMetrics.Start(rootCtx)
				defer dbMetrics.Stop()
			}
		}
	}

	publisher, closePublisher, err := newPublisher(&cfg.Event, log)
	if err != nil {
		log.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer closePublisher()

	archive, err := newUploadArchive(rootCtx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize upload archive", zap.Error(err))
	}

	// Services
	rules := trade.NewRuleBook(toPlantRules(cfg.Plants))
	sessionService := identityapp.NewSessionService(store, connector, cipher, cfg.Session.Lifetime, log)
	enrichmentService := tradeapp.NewEnrichmentService(rules, cfg.Enrichment.Workers, log)
	enrichmentService.SetPipelineMetrics(pipelineMetrics)
	uploadService := tradeapp.NewUploadService(csvimport.NewRowParser(), archive, enrichmentService, log)
	orderService := tradeapp.NewOrderService(rules, cfg.Orders.Workers, submissions, publisher, log)
	orderService.SetPipelineMetrics(pipelineMetrics)

	go sessionService.RunCleanup(rootCtx, cfg.Session.CleanupInterval)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    middleware.DefaultCORSConfig().ExposeHeaders,
		AllowCredentials: true,
		MaxAge:           middleware.DefaultCORSConfig().MaxAge,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize,
		middleware.WithRouteLimit(router.UploadPath, cfg.HTTP.MaxUploadSize)))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:          profiler.IsEnabled(),
		SkipPaths:        middleware.DefaultProfilingConfig().SkipPaths,
		SkipPathPrefixes: middleware.DefaultProfilingConfig().SkipPathPrefixes,
	}))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.SpanErrorMarker())
	}

	health := handler.NewHealthHandler(cfg.App.Name, version)
	if db != nil {
		health.AddCheck("database", func(context.Context) error { return db.Ping() })
	}
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		health.AddCheck("session_store", pinger.Ping)
	}

	guards := router.Guards{
		Session: middleware.SessionAuth(sessionService),
		Gateway: middleware.GatewayConnection(sessionService),
	}
	if cfg.HTTP.LoginRateLimitRequests > 0 {
		loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimitRequests, cfg.HTTP.LoginRateLimitWindow)
		defer loginLimiter.Stop()
		guards.Login = middleware.RateLimit(loginLimiter)
	}
	if cfg.Telemetry.Enabled {
		guards.SessionTrace = middleware.SessionSpanAttributes()
	}

	router.Setup(engine, router.Handlers{
		Auth:        handler.NewAuthHandler(sessionService),
		Rows:        handler.NewRowHandler(uploadService, cfg.HTTP.MaxUploadSize),
		Orders:      handler.NewOrderHandler(orderService),
		Locations:   handler.NewLocationHandler(tradeapp.NewLocationService()),
		Submissions: handler.NewSubmissionHandler(tradeapp.NewSubmissionService(submissions)),
		Health:      health,
	}, guards)

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

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newCredentialCipher decodes the configured key. Outside production a
// missing key is replaced by a random one, so sessions do not survive a
// restart.
func newCredentialCipher(encoded string, log *zap.Logger) (*auth.CredentialCipher, error) {
	if encoded == "" {
		key, err := auth.GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Warn("No session encryption key configured, using an ephemeral key")
		encoded = key
	}
	return auth.NewCredentialCipherFromBase64(encoded)
}

// openLedger connects to the ledger database and brings its schema up to
// date. Postgres uses the SQL migrations, sqlite uses GORM AutoMigrate.
func openLedger(cfg *config.DatabaseConfig, logLevel string, traced bool, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), 0)
	db, err := persistence.NewDatabaseWithLogger(cfg, gormLog)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	if traced {
		if err := telemetry.RegisterDBTracing(db.DB, db.DBSystem(), log); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	if !cfg.AutoMigrate {
		return db, nil
	}
	if db.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(&models.OrderSubmissionModel{}); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	// The migrator shares sqlDB, so it is not closed here.
	if err := m.Up(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newDBMetrics(mp *telemetry.MeterProvider, db *persistence.Database, interval time.Duration, log *zap.Logger) (*telemetry.DBMetrics, error) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}
	return telemetry.NewDBMetrics(mp.Meter("matreq-db"), sqlDB, interval, log)
}

// newPublisher returns the Kafka publisher when enabled, otherwise one that
// only logs events.
func newPublisher(cfg *config.EventConfig, log *zap.Logger) (shared.EventPublisher, func(), error) {
	serializer := event.NewEventSerializer()
	if !cfg.Enabled {
		return event.NewLogPublisher(serializer, log), func() {}, nil
	}
	p, err := event.NewKafkaPublisher(cfg, serializer, log)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			log.Error("Error closing event publisher", zap.Error(err))
		}
	}, nil
}

func newUploadArchive(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (tradeapp.UploadArchive, error) {
	if !cfg.Enabled {
		return storage.NoopUploadArchive{}, nil
	}
	archive, err := storage.NewS3UploadArchive(cfg, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

func toEnvironments(cfgs []config.EnvironmentConfig) []integration.Environment {
	envs := make([]integration.Environment, 0, len(cfgs))
	for _, c := range cfgs {
		envs = append(envs, integration.Environment{
			ID:           strings.ToUpper(c.ID),
			Description:  c.Description,
			Host:         c.Host,
			SystemNumber: c.SystemNumber,
			URL:          c.URL,
			Mode:         c.Mode,
		})
	}
	return envs
}

func toPlantRules(cfgs map[string]config.PlantConfig) map[string]trade.PlantRule {
	rules := make(map[string]trade.PlantRule, len(cfgs))
	for plant, c := range cfgs {
		rules[plant] = trade.PlantRule{SalesOrg: c.SalesOrg, SoldTo: c.SoldTo, ShipTo: c.ShipTo}
	}
	return rules
}
