package engine

import (
	"errors"
	"math"
	"time"

	"VolPulse/internal/domain/models"
)

// TradingDaysPerYear is the annualization base for the index scaling.
const TradingDaysPerYear = 252

var (
	// ErrEmptyChain is returned when the option chain has no quotes at all.
	ErrEmptyChain = errors.New("option chain is empty")
	// ErrNoUsableOptions is returned when no OTM option with a converged
	// solve survives filtering.
	ErrNoUsableOptions = errors.New("no usable out-of-the-money options")
)

// Aggregator combines the solved volatilities of a full option chain into
// one variance-swap-style index value. This is deliberately a robust proxy
// over whatever OTM strikes are available, not the strike-continuum
// replication formula.
type Aggregator struct {
	now func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorClock overrides the computation timestamp source.
func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an index aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute partitions the chain into OTM calls (strike above forward) and
// OTM puts (strike below forward), discards non-converged solves, and
// returns the market-price-weighted average volatility rescaled to a
// percentage index. Zero total weight falls back to an unweighted mean.
// The risk-free rate plays no role here: it is consumed upstream by the
// solver, and the aggregation averages volatilities, not prices.
func (a *Aggregator) Compute(chain []models.Quote, forward models.Forward, solves map[string]models.SolveResult) (models.IndexResult, error) {
	if len(chain) == 0 {
		return models.IndexResult{}, ErrEmptyChain
	}

	type otm struct {
		price float64
		iv    float64
		call  bool
	}
	var survivors []otm

	for _, q := range chain {
		res, ok := solves[q.Symbol]
		if !ok || !res.Converged {
			continue
		}
		switch {
		case q.Kind == models.Call && q.Strike > forward.Price:
			survivors = append(survivors, otm{price: q.MarketPrice, iv: res.IV, call: true})
		case q.Kind == models.Put && q.Strike < forward.Price:
			survivors = append(survivors, otm{price: q.MarketPrice, iv: res.IV, call: false})
		}
	}

	if len(survivors) == 0 {
		return models.IndexResult{}, ErrNoUsableOptions
	}

	var totalWeight, weightedIV, callSum, putSum float64
	for _, o := range survivors {
		weightedIV += o.iv * o.price
		totalWeight += o.price
		if o.call {
			callSum += o.iv * o.price
		} else {
			putSum += o.iv * o.price
		}
	}

	var meanIV, callFrac, putFrac float64
	if totalWeight > 0 {
		meanIV = weightedIV / totalWeight
		callFrac = callSum / totalWeight
		putFrac = putSum / totalWeight
	} else {
		for _, o := range survivors {
			meanIV += o.iv
		}
		meanIV /= float64(len(survivors))
	}

	return models.IndexResult{
		Symbol:           forward.Symbol,
		VIX:              meanIV * math.Sqrt(TradingDaysPerYear) * 100,
		CallContribution: callFrac,
		PutContribution:  putFrac,
		TotalOptions:     len(survivors),
		ComputedAt:       a.now(),
	}, nil
}

// IndexToIV converts an index percentage back to the underlying annualized
// volatility fraction, the inverse of the Compute scaling.
func IndexToIV(vix float64) float64 {
	return vix / 100 / math.Sqrt(TradingDaysPerYear)
}
