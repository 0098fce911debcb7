package di

import (
	"context"
	"fmt"
	"time"

	"VolPulse/internal/domain/models"
	domrepo "VolPulse/internal/domain/repository"
	"VolPulse/internal/engine"
	"VolPulse/internal/handler/api"
	internalrepo "VolPulse/internal/repository"
	"VolPulse/internal/service/ratelimit"
	"VolPulse/internal/usecase"
	"VolPulse/pkg/cache"
	pkgch "VolPulse/pkg/clickhouse"
	"VolPulse/pkg/config"
	xhttp "VolPulse/pkg/http"
	pkgkafka "VolPulse/pkg/kafka"
	applogger "VolPulse/pkg/logger"
	"VolPulse/pkg/metrics"
	"VolPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHistoryStore selects the persistence backend. The ClickHouse path
// owns its client; Close on the store tears the pool down.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (domrepo.HistoryStore, error) {
	switch cfg.History.Backend {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.History.Table)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return internalrepo.NewCHHistoryStore(client, cfg.History.Table, l), nil
	default:
		return internalrepo.NewFileHistoryStore(cfg.History.FilePath, l), nil
	}
}

// ProvideAlertPublisher creates the Kafka alert sink, or nil when disabled.
func ProvideAlertPublisher(cfg *config.Config) (domrepo.AlertPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideCache creates the index result cache, or nil when disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	}
	return cache.NewMemoryCache(), nil
}

// ProvideCommodities merges the built-in instrument table with overrides
// from config. Config entries win and may add instruments.
func ProvideCommodities(cfg *config.Config) map[string]models.CommodityConfig {
	table := engine.DefaultCommodities()
	for _, c := range cfg.Commodities {
		if c.Symbol == "" {
			continue
		}
		table[c.Symbol] = c
	}
	return table
}

// ProvideSolver configures the Newton solver from config, keeping the
// built-in defaults for anything unset.
func ProvideSolver(cfg *config.Config) *engine.Solver {
	var opts []engine.SolverOption
	if cfg.Engine.Tolerance > 0 {
		opts = append(opts, engine.WithTolerance(cfg.Engine.Tolerance))
	}
	if cfg.Engine.MaxIterations > 0 {
		opts = append(opts, engine.WithMaxIterations(cfg.Engine.MaxIterations))
	}
	if cfg.Engine.SeedSigma > 0 {
		opts = append(opts, engine.WithSeedSigma(cfg.Engine.SeedSigma))
	}
	return engine.NewSolver(opts...)
}

// ProvideLiquidityFilter configures the liquidity filter from config.
func ProvideLiquidityFilter(cfg *config.Config) *engine.LiquidityFilter {
	var opts []engine.LiquidityOption
	if cfg.Engine.MinVolume > 0 {
		opts = append(opts, engine.WithMinVolume(cfg.Engine.MinVolume))
	}
	if cfg.Engine.MinOpenInterest > 0 {
		opts = append(opts, engine.WithMinOpenInterest(cfg.Engine.MinOpenInterest))
	}
	if cfg.Engine.MaxSpreadPct > 0 {
		opts = append(opts, engine.WithMaxSpreadPct(cfg.Engine.MaxSpreadPct))
	}
	return engine.NewLiquidityFilter(opts...)
}

// ProvideRateProvider builds the currency rate table with config overrides.
func ProvideRateProvider(cfg *config.Config) *engine.RateProvider {
	overrides := make(map[models.Currency]float64, len(cfg.Engine.Rates))
	for cur, rate := range cfg.Engine.Rates {
		overrides[models.Currency(cur)] = rate
	}
	return engine.NewRateProvider(overrides)
}

// ProvideRankEstimator configures the rolling history estimator.
func ProvideRankEstimator(cfg *config.Config) *engine.RankEstimator {
	var opts []engine.EstimatorOption
	if cfg.Engine.Lookback > 0 {
		opts = append(opts, engine.WithLookback(cfg.Engine.Lookback))
	}
	if cfg.Engine.MinSamples > 0 {
		opts = append(opts, engine.WithMinSamples(cfg.Engine.MinSamples))
	}
	return engine.NewRankEstimator(opts...)
}

// ProvideAggregator creates the index aggregator.
func ProvideAggregator() *engine.Aggregator {
	return engine.NewAggregator()
}

// ProvideVolatilityService wires the orchestrating use case.
func ProvideVolatilityService(
	cfg *config.Config,
	commodities map[string]models.CommodityConfig,
	solver *engine.Solver,
	filter *engine.LiquidityFilter,
	rates *engine.RateProvider,
	estimator *engine.RankEstimator,
	aggregator *engine.Aggregator,
	store domrepo.HistoryStore,
	publisher domrepo.AlertPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.VolatilityService {
	opts := []usecase.ServiceOption{
		usecase.WithStrictFilter(cfg.Engine.StrictFilter),
		usecase.WithAlertThreshold(cfg.Engine.AlertThreshold),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithAlertPublisher(publisher))
	}
	return usecase.NewVolatilityService(
		commodities, solver, filter, rates, estimator, aggregator, store, m, l, opts...,
	)
}

// ProvideHandler creates the HTTP handler with optional caching and
// per-commodity rate limiting.
func ProvideHandler(cfg *config.Config, l *applogger.Logger, svc *usecase.VolatilityService, c cache.Service) xhttp.Handler {
	var opts []api.HandlerOption
	if c != nil {
		opts = append(opts, api.WithIndexCache(c, cfg.Cache.TTL))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, api.WithRateLimit(ratelimit.New(), cfg.RateLimit.Rate, cfg.RateLimit.Window))
	}
	return api.NewVolatilityHandler(l, svc, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.VolatilityService,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, svc, handler)
}
