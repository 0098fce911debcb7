package engine

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"VolPulse/internal/domain/models"
)

const (
	defaultLookback   = 252 // one trading year of daily observations
	defaultMinSamples = 50
	flatRangeEpsilon  = 1e-6
	bufferMultiple    = 3 // keep 3x lookback so sub-windows are possible
)

// HistoryMetrics is the calibrated position of a volatility value within
// its own history. SampleSize distinguishes calibrated answers from the
// neutral 50/50 default.
type HistoryMetrics struct {
	IVRank       float64 `json:"iv_rank"`       // 0-100, position between window min and max
	IVPercentile float64 `json:"iv_percentile"` // 0-100, fraction of observations <= current
	WindowHigh   float64 `json:"window_high"`
	WindowLow    float64 `json:"window_low"`
	SampleSize   int     `json:"sample_size"`
	Calibrated   bool    `json:"calibrated"` // false while below the sample minimum
}

// RankEstimator maintains per-instrument rolling volatility histories and
// computes IV Rank and IV Percentile against them. Safe for concurrent use;
// appends for one instrument must come from a single writer at a time.
type RankEstimator struct {
	mu         sync.RWMutex
	lookback   int
	minSamples int
	history    map[string][]models.HistoryPoint
}

// EstimatorOption configures a RankEstimator.
type EstimatorOption func(*RankEstimator)

// WithLookback sets the rolling window length in observations.
func WithLookback(n int) EstimatorOption {
	return func(e *RankEstimator) {
		if n > 0 {
			e.lookback = n
		}
	}
}

// WithMinSamples sets the insufficient-history threshold below which the
// neutral default is returned.
func WithMinSamples(n int) EstimatorOption {
	return func(e *RankEstimator) {
		if n > 0 {
			e.minSamples = n
		}
	}
}

// NewRankEstimator creates an estimator with a 252-observation lookback
// and a 50-observation calibration minimum.
func NewRankEstimator(opts ...EstimatorOption) *RankEstimator {
	e := &RankEstimator{
		lookback:   defaultLookback,
		minSamples: defaultMinSamples,
		history:    make(map[string][]models.HistoryPoint),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe appends a volatility observation for symbol, evicting the oldest
// entries once the buffer exceeds three lookback windows.
func (e *RankEstimator) Observe(symbol string, iv float64, ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pts := append(e.history[symbol], models.HistoryPoint{Timestamp: ts, IV: iv})
	if max := e.lookback * bufferMultiple; len(pts) > max {
		pts = pts[len(pts)-max:]
	}
	e.history[symbol] = pts
}

// Metrics computes IV Rank and IV Percentile for the current value against
// the most recent lookback window. With no or insufficient history it
// degrades to the neutral 50/50 default, reporting the true sample size.
func (e *RankEstimator) Metrics(symbol string, currentIV float64) HistoryMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pts := e.history[symbol]
	if len(pts) > e.lookback {
		pts = pts[len(pts)-e.lookback:]
	}
	if len(pts) < e.minSamples {
		return HistoryMetrics{
			IVRank:       50,
			IVPercentile: 50,
			WindowHigh:   currentIV,
			WindowLow:    currentIV,
			SampleSize:   len(pts),
		}
	}

	values := make([]float64, len(pts))
	for i, p := range pts {
		values[i] = p.IV
	}
	low := floats.Min(values)
	high := floats.Max(values)

	rank := 50.0
	if high-low >= flatRangeEpsilon {
		rank = (currentIV - low) / (high - low) * 100
		// A current value outside the window would escape [0,100].
		rank = math.Min(100, math.Max(0, rank))
	}

	atOrBelow := 0
	for _, v := range values {
		if v <= currentIV {
			atOrBelow++
		}
	}
	percentile := float64(atOrBelow) / float64(len(values)) * 100

	return HistoryMetrics{
		IVRank:       rank,
		IVPercentile: percentile,
		WindowHigh:   high,
		WindowLow:    low,
		SampleSize:   len(values),
		Calibrated:   true,
	}
}

// Snapshot copies the full per-instrument history for persistence.
func (e *RankEstimator) Snapshot() map[string][]models.HistoryPoint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string][]models.HistoryPoint, len(e.history))
	for sym, pts := range e.history {
		cp := make([]models.HistoryPoint, len(pts))
		copy(cp, pts)
		out[sym] = cp
	}
	return out
}

// Restore replaces the in-memory history with a previously saved snapshot,
// re-applying the buffer bound per instrument.
func (e *RankEstimator) Restore(history map[string][]models.HistoryPoint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	max := e.lookback * bufferMultiple
	e.history = make(map[string][]models.HistoryPoint, len(history))
	for sym, pts := range history {
		cp := make([]models.HistoryPoint, len(pts))
		copy(cp, pts)
		if len(cp) > max {
			cp = cp[len(cp)-max:]
		}
		e.history[sym] = cp
	}
}

// SampleSize returns the number of stored observations for symbol.
func (e *RankEstimator) SampleSize(symbol string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.history[symbol])
}
