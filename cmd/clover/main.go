package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/contact"
	"github.com/Ramsey-B/clover/pkg/clustering"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/locks"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/contacts"
	"github.com/Ramsey-B/clover/pkg/routes/duplicates"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/store/memstore"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

type app struct {
	logger   ectologger.Logger
	sqlDB    *sqlx.DB
	db       database.DB
	redis    *redis.Client
	graph    *graph.Client
	producer *kafka.Producer
	echo     *echo.Echo
	server   *http.Server
	health   *health.Checker
	fatal    chan error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zapLogger := newZapLogger(cfg)
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newTracerProvider(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to create trace exporter")
		os.Exit(1)
	}

	a := &app{
		logger: logger,
		health: health.NewChecker(cfg.Version),
		fatal:  make(chan error, 1),
	}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	httpDeps := []string{}
	if cfg.DatabaseHost != "" {
		boot.AddDependency(a.databaseDependency(cfg))
		boot.AddDependency(a.migrationDependency(cfg))
		httpDeps = append(httpDeps, "migrations")
	}
	if cfg.RedisHost != "" {
		boot.AddDependency(a.redisDependency(cfg))
		httpDeps = append(httpDeps, "redis")
	}
	if cfg.GraphDBHost != "" {
		boot.AddDependency(a.graphDependency(cfg))
		httpDeps = append(httpDeps, "graph")
	}
	boot.AddDependency(a.httpDependency(cfg, httpDeps))

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		_ = boot.Stop(context.Background())
		os.Exit(1)
	}
	logger.Infof("%s started", cfg.AppName)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-a.fatal:
		logger.WithError(err).Error("Shutting down after fatal error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to stop dependencies")
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka producer")
		}
	}
	if err := tracing.Shutdown(shutdownCtx, provider); err != nil {
		logger.WithError(err).Error("Failed to shut down tracer provider")
	}
}

// wire builds the services and the HTTP surface from the started dependencies
func (a *app) wire(cfg *config.Config) {
	var (
		contactStore  store.ContactStore
		contactWriter store.ContactWriter
	)
	if a.db != nil {
		repo := contact.NewRepository(a.db, a.logger)
		contactStore, contactWriter = repo, repo
		a.health.AddCheck("database", repo)
	} else {
		a.logger.Warn("DB_HOST not set, using the in-memory contact store")
		mem := memstore.New()
		contactStore, contactWriter = mem, mem
	}

	var locker locks.Locker
	if a.redis != nil {
		redisLocker := locks.NewRedisLocker(a.redis, a.logger, locks.RedisConfig{
			KeyPrefix: cfg.AppName + ":lock:",
			TTL:       cfg.MergeLockTTL,
			Wait:      cfg.MergeLockWait,
		})
		locker = redisLocker
		a.health.AddCheck("redis", redisLocker)
	} else {
		locker = locks.NewLocalLocker(cfg.MergeLockWait)
	}

	deps := dedupe.Dependencies{
		Store:  contactStore,
		Writer: contactWriter,
		Locker: locker,
	}

	if brokers := nonEmpty(cfg.KafkaBrokers); len(brokers) > 0 {
		a.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      brokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, a.logger)
		deps.Emitter = events.NewEmitter(a.producer, a.logger)
	}

	if a.graph != nil {
		deps.Projector = graph.NewDuplicateProjection(a.graph, a.logger)
		a.health.AddCheck("graph", health.PingFunc(a.graph.VerifyConnectivity))
	}

	strategy, err := clustering.ParseStrategy(cfg.ClusterStrategy)
	if err != nil {
		a.logger.WithError(err).Warn("Falling back to the seed anchored strategy")
		strategy = clustering.StrategySeedAnchored
	}
	scoringOpts := scoring.Options{TieBreakByID: cfg.TieBreakByID}
	deps.Builder = clustering.NewBuilder(a.logger, clustering.Options{
		Strategy:    strategy,
		Parallelism: cfg.ClusterParallelism,
		Scoring:     scoringOpts,
	})
	deps.Engine = merging.NewEngine(a.logger, contactStore, scoringOpts)

	svc := dedupe.NewService(a.logger, deps)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))

	a.health.RegisterRoutes(e)

	api := e.Group("/api/v1", middleware.RequireTenant())
	duplicates.NewHandler(svc).RegisterRoutes(api)
	contacts.NewHandler(svc).RegisterRoutes(api)

	a.echo = e
}

func newZapLogger(cfg *config.Config) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("app", cfg.AppName))
}

func newTracerProvider(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.OtelEndpoint,
		Protocol: cfg.OtelProtocol,
		Insecure: cfg.OtelInsecure,
	})
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return tracing.NewProvider(cfg.AppName, nil), nil
	}
	return tracing.NewProvider(cfg.AppName, exporter), nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
