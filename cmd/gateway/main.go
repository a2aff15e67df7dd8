// Command gateway boots the LLM API gateway: it loads the declarative
// config document, wires every stage of the request pipeline, and serves
// the OpenAI-shaped HTTP surface with a graceful drain on shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/config"
	"github.com/opengw/llmgateway/common/graceful"
	"github.com/opengw/llmgateway/common/logger"
	topmiddleware "github.com/opengw/llmgateway/middleware"

	"github.com/opengw/llmgateway/internal/analytics"
	"github.com/opengw/llmgateway/internal/auth"
	"github.com/opengw/llmgateway/internal/baggage"
	"github.com/opengw/llmgateway/internal/batcher"
	"github.com/opengw/llmgateway/internal/credential"
	"github.com/opengw/llmgateway/internal/guardrail"
	"github.com/opengw/llmgateway/internal/gwconfig"
	"github.com/opengw/llmgateway/internal/httpapi"
	"github.com/opengw/llmgateway/internal/inference"
	"github.com/opengw/llmgateway/internal/middleware"
	"github.com/opengw/llmgateway/internal/model"
	"github.com/opengw/llmgateway/internal/provider"
	"github.com/opengw/llmgateway/internal/ratelimit"
	"github.com/opengw/llmgateway/internal/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.SetupEnhancedLogger(ctx)
	logger.Logger.Info("llmgateway starting")

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else if !config.DebugEnabled {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := common.InitRedisClient(); err != nil {
		logger.Logger.Fatal("failed to initialize redis", zap.Error(err))
	}

	db, err := openTelemetryDB()
	if err != nil {
		logger.Logger.Fatal("failed to open telemetry database", zap.Error(err))
	}

	deps, cfg, closeFn := wireDependencies(ctx, db)
	defer closeFn()

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		topmiddleware.RelayPanicRecover(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
			MaxAge:          12 * time.Hour,
		}),
		topmiddleware.RequestId(),
		graceful.RequestTracker(),
	)

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Logger.Info("prometheus metrics endpoint available at /metrics")
	}

	httpapi.RegisterRoutes(server, cfg)

	addr := deps.bindAddress()
	httpServer := &http.Server{Addr: addr, Handler: server}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://"+addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Logger.Info("shutdown signal received, draining")
	graceful.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("graceful drain did not complete cleanly", zap.Error(err))
	}
	deps.Inference.Close()
	deps.AnalyticsBus.Close()
	logger.Logger.Info("llmgateway stopped")
}

// openTelemetryDB opens the GORM connection backing the analytics/inference
// batch stores. A missing SQL_DSN falls back to the bundled SQLite file;
// a "mysql://" or "postgres://" prefixed DSN selects the matching driver
// (see telemetryDialector).
func openTelemetryDB() (*gorm.DB, error) {
	dialector, err := telemetryDialector(config.SQLDSN, config.SQLitePath)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open telemetry database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "unwrap sql.DB")
	}
	sqlDB.SetMaxIdleConns(config.SQLMaxIdleConns)
	sqlDB.SetMaxOpenConns(config.SQLMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(config.SQLMaxLifetimeSeconds) * time.Second)
	return db, nil
}

func telemetryDialector(dsn, sqlitePath string) (gorm.Dialector, error) {
	switch {
	case dsn == "":
		return sqlite.Open(sqlitePath), nil
	case strings.HasPrefix(dsn, "mysql://"):
		cfg, err := mysqldriver.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
		if err != nil {
			return nil, errors.Wrap(err, "parse mysql dsn")
		}
		cfg.ParseTime = true
		return mysql.Open(cfg.FormatDSN()), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	default:
		return nil, errors.Errorf("unrecognized SQL_DSN scheme: %q (expected mysql:// or postgres://)", dsn)
	}
}

type appDeps struct {
	*httpapi.Dependencies
	bindAddr string
}

func (d *appDeps) bindAddress() string {
	if d.bindAddr != "" {
		return d.bindAddr
	}
	return ":" + config.ServerPort
}

// wireDependencies loads the gateway config document, builds every
// process-wide component, and returns the fully assembled httpapi.Config
// plus a cleanup function that closes the rate limiter.
func wireDependencies(ctx context.Context, db *gorm.DB) (*appDeps, httpapi.Config, func()) {
	doc := loadConfigDocument()

	models := model.NewStore()
	if table, err := doc.ToModelTable(); err != nil {
		logger.Logger.Fatal("invalid model table in gateway config", zap.Error(err))
	} else {
		models.Swap(table)
	}

	credentials := credential.NewStore()
	authStore := auth.NewStore()
	authStore.Reload(doc.ToAPIConfigs(), nil, nil)

	providers := provider.NewRegistry()
	rt := router.New(models, credentials, providers)

	guardrailRegistry := guardrail.NewRegistry()
	orchestrator := guardrail.NewOrchestrator(guardrailRegistry)
	profiles := doc.ToGuardrailProfiles()
	profilesFn := func() map[string]*guardrail.Profile { return profiles }

	analyticsStore := analytics.NewGormStore(db)
	if err := analyticsStore.Migrate(); err != nil {
		logger.Logger.Fatal("analytics schema migration failed", zap.Error(err))
	}
	inferenceStore := inference.NewGormStore(db)
	if err := inferenceStore.Migrate(); err != nil {
		logger.Logger.Fatal("inference schema migration failed", zap.Error(err))
	}

	analyticsBus := batcher.New[analytics.Record](analyticsStore, config.AnalyticsQueueCapacity, config.AnalyticsBatchSize, config.AnalyticsBatchInterval)
	inferenceBus := batcher.New[inference.Record](inferenceStore, config.InferenceQueueCapacity, config.InferenceBatchSize, config.InferenceBatchInterval)

	var shared ratelimit.SharedCounter = ratelimit.LocalOnlySharedCounter{}
	if common.IsRedisEnabled() {
		shared = ratelimit.RedisSharedCounter{}
	}
	limiter := ratelimit.NewLimiter(shared, config.RateLimitKeyExpirationDuration)

	defaultRateCfg := doc.ToRateLimitConfig()
	rateLimitConfigFor := func(modelName string) ratelimit.Config { return defaultRateCfg }

	deps := &httpapi.Dependencies{
		Models:       models,
		Router:       rt,
		Guardrails:   orchestrator,
		Profiles:     profilesFn,
		Inference:    inferenceBus,
		AnalyticsBus: analyticsBus,
	}

	if common.IsRedisEnabled() && config.ConfigReloadChannel != "" {
		reloader := gwconfig.NewRedisReloader(common.RDB, config.ConfigReloadChannel)
		startConfigReloadListener(ctx, reloader, models, authStore, &profiles)
	}

	app := &appDeps{Dependencies: deps, bindAddr: doc.BindAddress}

	cfg := httpapi.Config{
		Deps:               deps,
		AuthStore:          authStore,
		RateLimiter:        limiter,
		RateLimitConfigFor: rateLimitConfigFor,
		UsageCache:         noUsageLimits{},
		BlockRules:         noBlockRules{},
		GeoLookup:          func(string) string { return "" },
		OTLPCollectorURL:   firstNonEmpty(doc.Observability.OTLPCollector, config.OTLPProxyUpstream),
	}

	cleanup := func() {
		limiter.Close()
	}

	return app, cfg, cleanup
}

// startConfigReloadListener subscribes to the config bus and swaps the
// model table / auth store / guardrail profiles on every published
// document; see DESIGN.md's Open Question decision #1.
func startConfigReloadListener(ctx context.Context, reloader gwconfig.Reloader, models *model.Store, authStore *auth.Store, profiles *map[string]*guardrail.Profile) {
	updates, err := reloader.Subscribe(ctx)
	if err != nil {
		logger.Logger.Warn("config reload subscription failed, continuing with the document loaded at boot", zap.Error(err))
		return
	}
	graceful.GoCritical(ctx, "config-reload-listener", func(ctx context.Context) {
		for doc := range updates {
			table, err := doc.ToModelTable()
			if err != nil {
				logger.Logger.Error("reloaded config has an invalid model table, ignoring", zap.Error(err))
				continue
			}
			models.Swap(table)
			authStore.Reload(doc.ToAPIConfigs(), nil, nil)
			*profiles = doc.ToGuardrailProfiles()
			logger.Logger.Info("gateway config reloaded")
		}
	})
}

func loadConfigDocument() *gwconfig.Document {
	raw, err := os.ReadFile(config.GatewayConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Logger.Warn("gateway config file not found, starting with an empty model table", zap.String("path", config.GatewayConfigPath))
			return &gwconfig.Document{}
		}
		logger.Logger.Fatal("failed to read gateway config", zap.Error(err))
	}
	doc, err := gwconfig.Parse(raw)
	if err != nil {
		logger.Logger.Fatal("failed to parse gateway config", zap.Error(err))
	}
	return doc
}

// noUsageLimits/noBlockRules are the zero-config defaults: every user has
// quota, no project has a standing block rule. A real deployment replaces
// these via the config document once usage accounting / abuse rules ship.
type noUsageLimits struct{}

func (noUsageLimits) Get(string) (middleware.UsageStatus, bool) { return middleware.UsageStatus{}, false }

type noBlockRules struct{}

func (noBlockRules) RulesFor(string) []middleware.BlockRule { return nil }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// init wires the baggage span processor into a real OTel TracerProvider.
// The SDK provider works fully in-process even with no exporter attached,
// so this never blocks boot on exporter configuration.
func init() {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(baggage.SpanProcessor{}))
	otel.SetTracerProvider(tp)
}
