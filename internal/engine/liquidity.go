package engine

import (
	"fmt"

	"VolPulse/internal/domain/models"
)

const (
	defaultMinVolume       = 500
	defaultMinOpenInterest = 1000
	defaultMaxSpreadPct    = 0.20
)

// LiquidityFilter rejects quotes whose prices are too distorted by thin
// trading to yield a reliable implied volatility.
type LiquidityFilter struct {
	minVolume       int64
	minOpenInterest int64
	maxSpreadPct    float64
}

// LiquidityOption configures a LiquidityFilter.
type LiquidityOption func(*LiquidityFilter)

// WithMinVolume sets the minimum traded volume.
func WithMinVolume(v int64) LiquidityOption {
	return func(f *LiquidityFilter) { f.minVolume = v }
}

// WithMinOpenInterest sets the minimum open interest.
func WithMinOpenInterest(oi int64) LiquidityOption {
	return func(f *LiquidityFilter) { f.minOpenInterest = oi }
}

// WithMaxSpreadPct sets the maximum relative bid/ask spread.
func WithMaxSpreadPct(pct float64) LiquidityOption {
	return func(f *LiquidityFilter) {
		if pct > 0 {
			f.maxSpreadPct = pct
		}
	}
}

// NewLiquidityFilter creates a filter with the standard thresholds:
// volume >= 500, open interest >= 1000, relative spread <= 20%.
func NewLiquidityFilter(opts ...LiquidityOption) *LiquidityFilter {
	f := &LiquidityFilter{
		minVolume:       defaultMinVolume,
		minOpenInterest: defaultMinOpenInterest,
		maxSpreadPct:    defaultMaxSpreadPct,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Check returns whether the quote passes and a human-readable reason.
// The spread check only applies when an ask price is present.
func (f *LiquidityFilter) Check(q models.Quote) (bool, string) {
	if q.Volume < f.minVolume {
		return false, fmt.Sprintf("volume too low: %d < %d", q.Volume, f.minVolume)
	}
	if q.OpenInterest < f.minOpenInterest {
		return false, fmt.Sprintf("open interest too low: %d < %d", q.OpenInterest, f.minOpenInterest)
	}
	if q.Ask > 0 {
		spread := (q.Ask - q.Bid) / q.Ask
		if spread > f.maxSpreadPct {
			return false, fmt.Sprintf("bid/ask spread too wide: %.1f%% > %.1f%%", spread*100, f.maxSpreadPct*100)
		}
	}
	return true, "passed liquidity check"
}
