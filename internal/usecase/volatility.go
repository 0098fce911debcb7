package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"VolPulse/internal/domain/models"
	domrepo "VolPulse/internal/domain/repository"
	"VolPulse/internal/engine"
	applogger "VolPulse/pkg/logger"
)

// ErrIlliquidQuote is returned in strict filtering mode when a quote fails
// the liquidity check.
var ErrIlliquidQuote = errors.New("quote rejected by liquidity filter")

// VolatilityService wires the engine components together per request and
// owns the rolling history lifecycle. One instance per process; no hidden
// global state.
type VolatilityService struct {
	commodities  map[string]models.CommodityConfig
	solver       *engine.Solver
	filter       *engine.LiquidityFilter
	rates        *engine.RateProvider
	estimator    *engine.RankEstimator
	aggregator   *engine.Aggregator
	store        domrepo.HistoryStore
	publisher    domrepo.AlertPublisher
	metrics      domrepo.Metrics
	logger       *applogger.Logger
	strictFilter bool
	alertAt      float64
	now          func() time.Time
}

// ServiceOption configures a VolatilityService.
type ServiceOption func(*VolatilityService)

// WithStrictFilter makes liquidity rejection authoritative: rejected quotes
// are not solved. The default is advisory (log-only), since illiquid quotes
// may be the only data available.
func WithStrictFilter(strict bool) ServiceOption {
	return func(s *VolatilityService) { s.strictFilter = strict }
}

// WithAlertThreshold sets the IV Percentile above which alerts fire.
func WithAlertThreshold(pct float64) ServiceOption {
	return func(s *VolatilityService) {
		if pct > 0 {
			s.alertAt = pct
		}
	}
}

// WithAlertPublisher attaches an alert event sink.
func WithAlertPublisher(p domrepo.AlertPublisher) ServiceOption {
	return func(s *VolatilityService) { s.publisher = p }
}

// WithServiceClock overrides the observation timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *VolatilityService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewVolatilityService builds the orchestrating service. Store and metrics
// are required; pass engine components configured to taste.
func NewVolatilityService(
	commodities map[string]models.CommodityConfig,
	solver *engine.Solver,
	filter *engine.LiquidityFilter,
	rates *engine.RateProvider,
	estimator *engine.RankEstimator,
	aggregator *engine.Aggregator,
	store domrepo.HistoryStore,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	opts ...ServiceOption,
) *VolatilityService {
	s := &VolatilityService{
		commodities: commodities,
		solver:      solver,
		filter:      filter,
		rates:       rates,
		estimator:   estimator,
		aggregator:  aggregator,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		alertAt:     engine.DefaultAlertThreshold,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commodities returns the static instrument table.
func (s *VolatilityService) Commodities() map[string]models.CommodityConfig {
	return s.commodities
}

// LoadHistory restores the rolling history from the store so restarts do
// not lose calibration. A missing snapshot is not an error.
func (s *VolatilityService) LoadHistory(ctx context.Context) error {
	history, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	s.estimator.Restore(history)
	s.logger.Info("volatility history restored", applogger.Int("instruments", len(history)))
	return nil
}

// SaveHistory snapshots the rolling history to the store.
func (s *VolatilityService) SaveHistory(ctx context.Context) error {
	snap := s.estimator.Snapshot()
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	s.logger.Info("volatility history saved", applogger.Int("instruments", len(snap)))
	return nil
}

// SolveIV runs the single-quote path: liquidity check, rate lookup, solve,
// history append. Only converged volatilities enter the history; a
// non-converged solve is returned to the caller but never calibrates the
// estimator.
func (s *VolatilityService) SolveIV(ctx context.Context, commodity string, quote models.Quote, forward models.Forward) (models.SolveResult, error) {
	start := time.Now()

	if pass, reason := s.filter.Check(quote); !pass {
		if s.strictFilter {
			s.metrics.RecordError("liquidity_reject")
			return models.SolveResult{}, fmt.Errorf("%w: %s: %s", ErrIlliquidQuote, quote.Symbol, reason)
		}
		s.logger.Warn("liquidity check failed, solving anyway",
			applogger.String("symbol", quote.Symbol),
			applogger.String("reason", reason),
		)
	}

	rate := s.rates.Rate(s.currencyFor(commodity, forward))
	res := s.solver.Solve(quote, forward, rate)
	s.metrics.RecordSolve(quote.Symbol, res.Iterations, res.Converged)

	if res.Converged {
		s.estimator.Observe(commodity, res.IV, s.now())
	} else {
		s.metrics.RecordError("solve_nonconverged")
	}

	s.logger.Info("implied volatility solved",
		applogger.String("symbol", quote.Symbol),
		applogger.Float64("iv", res.IV),
		applogger.Int("iterations", res.Iterations),
		applogger.Bool("converged", res.Converged),
	)
	s.metrics.RecordLatency("solve_iv", time.Since(start).Seconds())
	return res, nil
}

// ComputeIndex runs the chain path: per-quote solves, variance aggregation,
// rank/percentile attachment once calibrated, and the alert decision. The
// returned Signal carries the recommendation and its basis.
func (s *VolatilityService) ComputeIndex(ctx context.Context, commodity string, chain []models.Quote, forward models.Forward) (models.IndexResult, models.Signal, error) {
	start := time.Now()

	if len(chain) == 0 {
		return models.IndexResult{}, models.Signal{}, engine.ErrEmptyChain
	}

	solves := make(map[string]models.SolveResult, len(chain))
	for _, q := range chain {
		res, err := s.SolveIV(ctx, commodity, q, forward)
		if err != nil {
			// Strict-mode liquidity rejection: skip the quote, keep the chain.
			s.logger.Warn("quote skipped", applogger.String("symbol", q.Symbol), applogger.Error(err))
			continue
		}
		solves[q.Symbol] = res
	}

	index, err := s.aggregator.Compute(chain, forward, solves)
	if err != nil {
		s.metrics.RecordError("index_compute")
		return models.IndexResult{}, models.Signal{}, fmt.Errorf("aggregate %s: %w", commodity, err)
	}

	m := s.estimator.Metrics(commodity, engine.IndexToIV(index.VIX))
	index.SampleSize = m.SampleSize
	if m.Calibrated {
		rank, pct := m.IVRank, m.IVPercentile
		index.IVRank = &rank
		index.IVPercentile = &pct
	}

	signal := s.signalFor(commodity, index)
	s.metrics.RecordIndex(commodity, index.VIX)
	s.logger.Info("volatility index computed",
		applogger.String("commodity", commodity),
		applogger.Float64("vix", index.VIX),
		applogger.Int("options", index.TotalOptions),
		applogger.Bool("calibrated", m.Calibrated),
		applogger.String("level", signal.Level),
	)

	if signal.ShouldAlert && s.publisher != nil {
		if err := s.publisher.PublishAlert(ctx, index, signal); err != nil {
			s.metrics.RecordError("alert_publish")
			s.logger.Error("alert publish failed", applogger.String("commodity", commodity), applogger.Error(err))
		}
	}

	s.metrics.RecordLatency("compute_index", time.Since(start).Seconds())
	return index, signal, nil
}

// HistoryMetrics exposes the calibrated position of an arbitrary volatility
// value for one instrument.
func (s *VolatilityService) HistoryMetrics(commodity string, currentIV float64) engine.HistoryMetrics {
	return s.estimator.Metrics(commodity, currentIV)
}

// signalFor prefers the universal percentile ladder; without calibrated
// history it degrades to the per-instrument absolute thresholds, and never
// alerts on that basis.
func (s *VolatilityService) signalFor(commodity string, index models.IndexResult) models.Signal {
	if index.IVPercentile != nil {
		lvl := engine.AlertLevelFor(*index.IVPercentile)
		return models.Signal{
			Symbol:         commodity,
			Level:          lvl.Level,
			Narrative:      lvl.Narrative,
			Advice:         lvl.Advice,
			Basis:          models.BasisPercentile,
			ShouldAlert:    engine.ShouldAlert(*index.IVPercentile, s.alertAt),
			AlertThreshold: s.alertAt,
		}
	}

	cfg, ok := s.commodities[commodity]
	if !ok {
		cfg = models.CommodityConfig{Symbol: commodity, HighIVThreshold: 0.40, ExtremeThreshold: 0.60}
	}
	lvl := engine.AbsoluteLevelFor(index.VIX, cfg)
	return models.Signal{
		Symbol:         commodity,
		Level:          lvl.Level,
		Narrative:      lvl.Narrative,
		Advice:         lvl.Advice,
		Basis:          models.BasisAbsolute,
		ShouldAlert:    false,
		AlertThreshold: s.alertAt,
	}
}

// Close releases the store and, when configured, the alert publisher.
func (s *VolatilityService) Close() error {
	var firstErr error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// currencyFor resolves the discount currency: the commodity table wins,
// the forward's own currency is the fallback.
func (s *VolatilityService) currencyFor(commodity string, forward models.Forward) models.Currency {
	if cfg, ok := s.commodities[commodity]; ok {
		return cfg.Currency
	}
	return forward.Currency
}
