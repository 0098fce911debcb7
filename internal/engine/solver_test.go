package engine

import (
	"math"
	"testing"
	"time"

	"VolPulse/internal/domain/models"
)

func fixedClock() (func() time.Time, time.Time) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }, now
}

func mustQuote(t *testing.T, symbol string, kind models.OptionKind, strike, price float64, expiry time.Time) models.Quote {
	t.Helper()
	q, err := models.NewQuote(symbol, kind, strike, price, 0, 0, 1000, 5000, expiry)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	return q
}

func TestSolveRoundTrip(t *testing.T) {
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock))

	const f, k, r = 100.0, 110.0, 0.03
	T := 0.5
	expiry := now.Add(time.Duration(T * yearSeconds * float64(time.Second)))

	forward := models.Forward{Symbol: "GC", Price: f, Currency: models.CurrencyUSD}

	for _, trueSigma := range []float64{0.05, 0.10, 0.25, 0.50, 1.00, 1.50, 2.00} {
		price := Black76Call(f, k, T, r, trueSigma)
		q := mustQuote(t, "GC-C-110", models.Call, k, price, expiry)

		res := solver.Solve(q, forward, r)
		if !res.Converged {
			t.Fatalf("sigma=%v: did not converge after %d iterations", trueSigma, res.Iterations)
		}
		if math.Abs(res.IV-trueSigma) > 1e-4 {
			t.Errorf("sigma=%v: recovered %v", trueSigma, res.IV)
		}
	}
}

func TestSolveSilverScenario(t *testing.T) {
	// Slightly OTM silver call: F=4900, K=5000, T=30/365, r=0.02, priced at 150.
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock))

	expiry := now.Add(30 * 24 * time.Hour)
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}
	q := mustQuote(t, "AG2406-C-5000", models.Call, 5000, 150, expiry)

	res := solver.Solve(q, forward, 0.02)
	if !res.Converged {
		t.Fatalf("did not converge: %+v", res)
	}
	if res.Iterations > 30 {
		t.Errorf("took %d iterations, want <= 30", res.Iterations)
	}
	if res.IV < 0.20 || res.IV > 0.45 {
		t.Errorf("iv = %v, want within [0.20, 0.45]", res.IV)
	}
	if math.Abs(res.TheoreticalPrice-150) > 1e-4 {
		t.Errorf("theoretical price %v, want 150 within 1e-4", res.TheoreticalPrice)
	}
}

func TestSolvePutRoundTrip(t *testing.T) {
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock))

	const f, k, r, trueSigma = 4900.0, 4500.0, 0.02, 0.35
	T := 60.0 / 365.25
	expiry := now.Add(60 * 24 * time.Hour)

	price := Black76Put(f, k, T, r, trueSigma)
	q := mustQuote(t, "AG2406-P-4500", models.Put, k, price, expiry)
	forward := models.Forward{Symbol: "AG2406", Price: f, Currency: models.CurrencyCNY}

	res := solver.Solve(q, forward, r)
	if !res.Converged {
		t.Fatalf("did not converge: %+v", res)
	}
	if math.Abs(res.IV-trueSigma) > 1e-4 {
		t.Errorf("recovered %v, want %v", res.IV, trueSigma)
	}
}

func TestSolveVegaCollapseReportsNonConverged(t *testing.T) {
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock))

	// Expired deep OTM call: T floors at the minimum, vega collapses and the
	// market price is unreachable.
	expiry := now.Add(-time.Hour)
	forward := models.Forward{Symbol: "GC", Price: 100, Currency: models.CurrencyUSD}
	q := mustQuote(t, "GC-C-500", models.Call, 500, 50, expiry)

	res := solver.Solve(q, forward, 0.045)
	if res.Converged {
		t.Fatalf("expected non-converged result, got %+v", res)
	}
	if res.Iterations == 0 || res.Iterations > defaultMaxIters {
		t.Errorf("iterations out of range: %d", res.Iterations)
	}
}

func TestSolveNeverExceedsIterationCap(t *testing.T) {
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock), WithMaxIterations(10))

	expiry := now.Add(30 * 24 * time.Hour)
	forward := models.Forward{Symbol: "GC", Price: 100, Currency: models.CurrencyUSD}
	// Price above the forward is unattainable for a call; the solver must
	// still return within the cap.
	q := mustQuote(t, "GC-C-100", models.Call, 100, 150, expiry)

	res := solver.Solve(q, forward, 0.045)
	if res.Converged {
		t.Fatalf("unattainable price reported converged: %+v", res)
	}
	if res.Iterations > 10 {
		t.Errorf("iterations %d exceed cap", res.Iterations)
	}
}

func TestSolveClampsSigmaIntoBounds(t *testing.T) {
	clock, now := fixedClock()
	solver := NewSolver(WithClock(clock))

	expiry := now.Add(7 * 24 * time.Hour)
	forward := models.Forward{Symbol: "I", Price: 800, Currency: models.CurrencyCNY}
	// Tiny price on a far OTM strike drives Newton steps toward zero sigma.
	q := mustQuote(t, "I-C-2000", models.Call, 2000, 0.01, expiry)

	res := solver.Solve(q, forward, 0.02)
	if res.IV < sigmaLowerBound || res.IV > sigmaUpperBound {
		t.Fatalf("iv %v escaped [%v, %v]", res.IV, sigmaLowerBound, sigmaUpperBound)
	}
}
