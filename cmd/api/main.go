package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/api/rest"
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/cache"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/database"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraud-scoring-backend/internal/metrics"
	"github.com/davidleathers/fraud-scoring-backend/internal/model"
	"github.com/davidleathers/fraud-scoring-backend/internal/service/scoring"
	"github.com/davidleathers/fraud-scoring-backend/internal/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	slog.SetDefault(logger)

	// Infrastructure packages log through zap.
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("setting up zap logger: %w", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	otelCfg := telemetry.DefaultConfig()
	otelCfg.ServiceName = cfg.Telemetry.ServiceName
	otelCfg.ServiceVersion = cfg.Version
	otelCfg.Environment = cfg.Environment
	otelCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	otelCfg.Enabled = cfg.Telemetry.Enabled
	otelCfg.SamplingRate = cfg.Telemetry.SampleRate

	provider, err := telemetry.InitializeOpenTelemetry(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// The registry picks up the global meter provider, so it must come
	// after InitializeOpenTelemetry.
	registry, err := metrics.NewRegistry("fsb")
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	cacheManager, err := cache.NewCacheManager(&cfg.Redis, zapLogger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer cacheManager.Close()

	activity, err := signal.NewRedisActivityStore(cacheManager.Client(), zapLogger)
	if err != nil {
		return fmt.Errorf("creating activity store: %w", err)
	}

	pg, err := signal.NewPostgresStore(pool.Pool(), zapLogger)
	if err != nil {
		return fmt.Errorf("creating postgres store: %w", err)
	}
	merchants := signal.NewCachedMerchantStore(pg, cacheManager.Cache, zapLogger)

	geoEntries := make([]signal.GeoEntry, len(cfg.Geo.Entries))
	for i, e := range cfg.Geo.Entries {
		geoEntries[i] = signal.GeoEntry{
			CIDR:      e.CIDR,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			Country:   e.Country,
		}
	}
	geo, err := signal.NewStaticGeoResolver(geoEntries)
	if err != nil {
		return fmt.Errorf("building geo table: %w", err)
	}
	domains := signal.NewStaticDomainAgeResolver(cfg.Geo.DomainAges)

	gateway := signal.NewGateway(activity, pg, merchants, geo, domains,
		registry, logger, cfg.Scoring.SignalTimeout)

	// A missing model artifact is not fatal: the server comes up, health
	// reports not ready, and scoring requests get 503 until the artifact
	// is deployed.
	var predictor model.Predictor
	if mdl, err := model.Load(cfg.Model.ArtifactPath); err != nil {
		logger.Warn("model artifact not loaded, scoring unavailable",
			"path", cfg.Model.ArtifactPath, "error", err)
	} else {
		predictor = mdl
		info := mdl.Info()
		logger.Info("model loaded",
			"version", info.Version,
			"type", info.Type,
			"features", info.FeatureCount,
		)
	}

	lists := feature.NewLists(
		cfg.Lists.HighRiskCountries,
		cfg.Lists.FreeEmailDomains,
		cfg.Lists.DisposableEmailDomains,
		cfg.Lists.HighRiskIndustries,
		cfg.Lists.MediumRiskIndustries,
		cfg.Lists.Holidays,
		cfg.Scoring.HighValueThreshold,
	)
	computer := feature.NewComputer(lists)

	thresholds := scoring.Thresholds{
		Monitor: cfg.Scoring.MonitorThreshold,
		Review:  cfg.Scoring.ReviewThreshold,
		Decline: cfg.Scoring.DeclineThreshold,
	}

	svc, err := scoring.NewService(gateway, computer, predictor, pg,
		thresholds, cfg.Scoring.BatchWorkers, registry, logger)
	if err != nil {
		return fmt.Errorf("creating scoring service: %w", err)
	}

	health := rest.NewHealthService(cfg.Version, func() bool {
		_, ok := svc.ModelInfo()
		return ok
	})
	health.RegisterChecker(rest.CheckerFunc{
		CheckName: "database",
		Fn:        pool.HealthCheck,
	})
	health.RegisterChecker(rest.CheckerFunc{
		CheckName: "redis",
		Fn:        cacheManager.HealthCheck,
	})

	stopPoolStats := samplePoolStats(pool, registry)
	defer stopPoolStats()

	server := rest.NewServer(cfg, rest.Dependencies{
		Scoring:        svc,
		Health:         health,
		RateLimiter:    cacheManager.RateLimiter,
		Metrics:        registry,
		Logger:         logger,
		MetricsHandler: registry.PrometheusHandler(),
	})

	return server.Start()
}

// samplePoolStats publishes connection pool gauges every 15 seconds.
func samplePoolStats(pool *database.ConnectionPool, registry *metrics.Registry) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				stat := pool.Stat()
				registry.SetDBPoolStats(
					int64(stat.AcquiredConns()),
					int64(stat.IdleConns()),
					int64(stat.TotalConns()),
					int64(stat.MaxConns()),
				)
			}
		}
	}()
	return func() { close(done) }
}
