package engine

import (
	"math"
	"time"

	"VolPulse/internal/domain/models"
)

const (
	defaultTolerance  = 1e-6
	defaultMaxIters   = 100
	defaultSeedSigma  = 0.5
	vegaEpsilon       = 1e-8
	sigmaLowerBound   = 0.001 // 0.1% annualized
	sigmaUpperBound   = 5.0   // 500% annualized
	minTimeToExpiry   = 0.001 // years; same-day expiries are numerically unstable
	yearSeconds       = 365.25 * 24 * 3600
	clampStrikeStreak = 2 // consecutive clamped iterates treated as divergence
)

// Solver recovers implied volatility from a market price by Newton-Raphson
// iteration on f(sigma) = Black76Price(sigma) - MarketPrice.
type Solver struct {
	tolerance float64
	maxIters  int
	seedSigma float64
	now       func() time.Time
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithTolerance sets the absolute price tolerance for convergence.
func WithTolerance(tol float64) SolverOption {
	return func(s *Solver) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.maxIters = n
		}
	}
}

// WithSeedSigma sets the initial volatility guess.
func WithSeedSigma(sigma float64) SolverOption {
	return func(s *Solver) {
		if sigma > 0 {
			s.seedSigma = sigma
		}
	}
}

// WithClock overrides the time source used for time-to-expiry.
func WithClock(now func() time.Time) SolverOption {
	return func(s *Solver) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSolver creates a Solver with the standard calibration: seed 50%,
// tolerance 1e-6 price units, 100 iterations.
func NewSolver(opts ...SolverOption) *Solver {
	s := &Solver{
		tolerance: defaultTolerance,
		maxIters:  defaultMaxIters,
		seedSigma: defaultSeedSigma,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve inverts the pricing model for one quote. It never fails on bad
// market data: the Converged flag signals whether the volatility is usable.
// Iterates clamped at the sigma bounds on consecutive steps are reported as
// non-converged rather than returned as a plausible-looking bounded value.
func (s *Solver) Solve(quote models.Quote, forward models.Forward, rate float64) models.SolveResult {
	t := s.timeToExpiry(quote.Expiry)

	price := Black76Call
	if quote.Kind == models.Put {
		price = Black76Put
	}

	f, k := forward.Price, quote.Strike
	sigma := s.seedSigma

	var theo, diff, vega float64
	clamped := 0
	for i := 0; i < s.maxIters; i++ {
		theo = price(f, k, t, rate, sigma)
		diff = theo - quote.MarketPrice

		if math.Abs(diff) < s.tolerance {
			return models.SolveResult{
				Symbol:           quote.Symbol,
				IV:               sigma,
				Iterations:       i + 1,
				Converged:        true,
				TheoreticalPrice: theo,
				Error:            diff,
				Vega:             Black76Vega(f, k, t, rate, sigma),
			}
		}

		vega = Black76Vega(f, k, t, rate, sigma)
		if math.Abs(vega) < vegaEpsilon {
			// Derivative too flat for a safe update: deep ITM/OTM or near expiry.
			return models.SolveResult{
				Symbol:           quote.Symbol,
				IV:               sigma,
				Iterations:       i + 1,
				Converged:        false,
				TheoreticalPrice: theo,
				Error:            diff,
				Vega:             vega,
			}
		}

		sigma -= diff / vega

		if sigma < sigmaLowerBound {
			sigma = sigmaLowerBound
			clamped++
		} else if sigma > sigmaUpperBound {
			sigma = sigmaUpperBound
			clamped++
		} else {
			clamped = 0
		}
		if clamped >= clampStrikeStreak {
			return models.SolveResult{
				Symbol:           quote.Symbol,
				IV:               sigma,
				Iterations:       i + 1,
				Converged:        false,
				TheoreticalPrice: theo,
				Error:            diff,
				Vega:             vega,
			}
		}
	}

	return models.SolveResult{
		Symbol:           quote.Symbol,
		IV:               sigma,
		Iterations:       s.maxIters,
		Converged:        false,
		TheoreticalPrice: theo,
		Error:            diff,
		Vega:             vega,
	}
}

// timeToExpiry converts (expiry - now) into annualized years, floored at
// minTimeToExpiry to keep same-day expiries stable.
func (s *Solver) timeToExpiry(expiry time.Time) float64 {
	seconds := expiry.Sub(s.now()).Seconds()
	if seconds <= 0 {
		return minTimeToExpiry
	}
	t := seconds / yearSeconds
	if t < minTimeToExpiry {
		return minTimeToExpiry
	}
	return t
}
