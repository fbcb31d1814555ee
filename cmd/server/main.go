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
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/actdesk/backend/internal/infrastructure/cache"
	"github.com/actdesk/backend/internal/infrastructure/config"
	"github.com/actdesk/backend/internal/infrastructure/logger"
	"github.com/actdesk/backend/internal/infrastructure/migration"
	"github.com/actdesk/backend/internal/infrastructure/persistence"
	"github.com/actdesk/backend/internal/infrastructure/persistence/filestore"
	"github.com/actdesk/backend/internal/infrastructure/printing"
	"github.com/actdesk/backend/internal/infrastructure/scheduler"
	"github.com/actdesk/backend/internal/infrastructure/storage"
	"github.com/actdesk/backend/internal/infrastructure/telemetry"
	"github.com/actdesk/backend/internal/interfaces/http/handler"
	"github.com/actdesk/backend/internal/interfaces/http/middleware"
	"github.com/actdesk/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// A missing .env is fine; the environment and config.toml still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.FromSettings(cfg.Log, cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting actdesk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	otelCfg := telemetry.ConfigFrom(cfg.Telemetry)
	profiler, err := telemetry.StartProfiler(otelCfg, log)
	if err != nil {
		log.Warn("Profiling unavailable", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler stop failed", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		log = loggerProvider.Bridge(log, level)
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.SlowQueryThreshold),
	)
	db, err := persistence.Open(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: telemetry.DBSystemFor(cfg.Database.Driver),
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.DBMetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.SlowQueryThreshold,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	defer func() {
		_ = dbMetrics.Stop()
	}()

	if err := migrateSchema(db, cfg.Database.Driver, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	previews, err := cache.NewFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create()
	if err != nil {
		log.Fatal("Failed to create preview cache", zap.Error(err))
	}
	defer func() {
		_ = previews.Close()
	}()

	exportStorage, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to create export storage", zap.Error(err))
	}
	if s3Storage, ok := exportStorage.(*storage.S3DocumentStorage); ok {
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Export bucket is not ready", zap.String("bucket", s3Storage.Bucket()), zap.Error(err))
		}
	}

	renderMetrics, err := telemetry.NewRenderMetrics(meterProvider.Meter("actdesk/render"))
	if err != nil {
		log.Fatal("Failed to register render metrics", zap.Error(err))
	}

	renderers, err := newRenderers(cfg.Rendering, log)
	if err != nil {
		log.Fatal("Failed to initialize renderers", zap.Error(err))
	}

	chrome := printing.NewChromedpRasterizer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Rendering.Timeout,
		RemoteURL:      cfg.Rendering.ChromeRemoteURL,
		ExecPath:       cfg.Rendering.ChromeExecPath,
		NoSandbox:      cfg.Rendering.ChromeNoSandbox,
		Logger:         log,
	})
	defer func() {
		_ = chrome.Close()
	}()
	rasterizer := printing.NewRasterChain(log,
		printing.NewPdftoppmRasterizer(&printing.PdftoppmConfig{
			BinaryPath: cfg.Rendering.PdftoppmPath,
			Timeout:    cfg.Rendering.Timeout,
			TempDir:    cfg.Rendering.TempDir,
			Logger:     log,
		}),
		chrome,
	)

	var layoutOpts []layout.Option
	if len(cfg.Rendering.FontCandidates) > 0 {
		layoutOpts = append(layoutOpts, layout.WithFontCandidates(cfg.Rendering.FontCandidates...))
	}

	exportHistory := persistence.NewGormExportRepository(db.DB)
	retention, err := newRetentionTrigger(cfg.Storage, exportHistory, exportStorage, log)
	if err != nil {
		log.Fatal("Failed to configure export retention", zap.Error(err))
	}
	if retention != nil {
		if err := retention.Start(ctx); err != nil {
			log.Fatal("Failed to start export retention", zap.Error(err))
		}
	}

	addressBook := actapp.NewAddressBookService(persistence.NewGormAddressBookRepository(db.DB), log)
	renderService := actapp.NewRenderService(renderers,
		actapp.WithRasterizer(rasterizer),
		actapp.WithPreviewCache(previews),
		actapp.WithExportStorage(exportStorage, cfg.Storage.Backend),
		actapp.WithExportHistory(exportHistory),
		actapp.WithAddressBook(addressBook),
		actapp.WithRenderMetrics(renderMetrics),
		actapp.WithLayoutOptions(layoutOpts...),
		actapp.WithPreviewDPI(cfg.Rendering.PreviewDPI),
		actapp.WithRenderLogger(log),
	)
	documentService := actapp.NewDocumentService(
		filestore.NewProjectStore(cfg.Documents.ProjectsDir, log),
		filestore.NewTemplateStore(cfg.Documents.TemplatesDir, log),
		filestore.NewDefaultsStore(cfg.Documents.DefaultsFile, log),
		log,
	)

	actHandler := handler.NewActHandler(documentService, renderService)
	documentHandler := handler.NewDocumentHandler(documentService)
	partyHandler := handler.NewPartyHandler(addressBook)
	exportHandler := handler.NewExportHandler(renderService)
	systemHandler := handler.NewSystemHandler(version, renderService)
	systemHandler.AddCheck("database", db.Ping)
	if redisCache, ok := previews.(*cache.RedisPreviewCache); ok {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisCache.Client().Ping(ctx).Err()
		})
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before logging and tracing
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(logger.GinMiddlewareWithConfig(log, logger.GinConfig{SkipPaths: []string{"/health"}}))
	engine.Use(middleware.SpanDecorator())
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Render, preview and export start a renderer and possibly a browser
	heavy := []gin.HandlerFunc{middleware.Timeout(cfg.Rendering.Timeout)}
	if cfg.HTTP.RateLimitEnabled {
		var limiter middleware.Limiter
		backend := "memory"
		if redisCache, ok := previews.(*cache.RedisPreviewCache); ok {
			limiter = middleware.NewRedisLimiter(redisCache.Client(), "",
				cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			backend = "redis"
		} else {
			memLimiter := middleware.NewMemoryLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			defer memLimiter.Stop()
			limiter = memLimiter
		}
		heavy = append(heavy, middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.String("backend", backend),
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", systemHandler.Health)

	routes := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.ActRoutes(actHandler, heavy...)).
		Register(handler.ProjectRoutes(documentHandler)).
		Register(handler.TemplateRoutes(documentHandler)).
		Register(handler.DefaultsRoutes(documentHandler)).
		Register(handler.PartyRoutes(partyHandler)).
		Register(handler.ExportRoutes(exportHandler)).
		Register(handler.SystemRoutes(systemHandler)).
		Setup()
	systemHandler.SetRoutes(routes)
	log.Info("Routes mounted", zap.Int("count", len(routes)))

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
	if retention != nil {
		if err := retention.Stop(shutdownCtx); err != nil {
			log.Error("Export retention stop failed", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema brings the address book and export history tables up to date
func migrateSchema(db *persistence.Database, driver string, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// The migrator shares the pool, so it is not closed here
	m, err := migration.New(sqlDB, driver, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newRetentionTrigger schedules the daily export sweep, or returns nil when
// exports are kept forever
func newRetentionTrigger(cfg config.StorageConfig, history *persistence.GormExportRepository, store storage.DocumentStorage, log *zap.Logger) (*scheduler.CronTrigger, error) {
	if cfg.Retention <= 0 {
		return nil, nil
	}
	sweep, err := scheduler.NewExportRetention(scheduler.ExportRetentionConfig{MaxAge: cfg.Retention}, history, store, log)
	if err != nil {
		return nil, err
	}
	trigger := scheduler.DefaultCronTriggerConfig()
	trigger.Name = "export_retention"
	trigger.DailyHour = cfg.CleanupHour
	return scheduler.NewCronTrigger(trigger, sweep.Task(), log)
}

func newRenderers(cfg config.RenderingConfig, log *zap.Logger) ([]printing.Renderer, error) {
	html, err := printing.NewHTMLRenderer(log)
	if err != nil {
		return nil, err
	}
	return []printing.Renderer{
		printing.NewPDFRenderer(
			printing.WithCompression(cfg.Compress),
			printing.WithEncryptor(printing.NewPDFCPUEncryptor()),
			printing.WithPDFLogger(log),
		),
		printing.NewDOCXRenderer(printing.WithDOCXLogger(log)),
		html,
	}, nil
}
