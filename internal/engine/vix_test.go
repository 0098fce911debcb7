package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"VolPulse/internal/domain/models"
)

func chainQuote(symbol string, kind models.OptionKind, strike, price float64) models.Quote {
	return models.Quote{
		Symbol:      symbol,
		Kind:        kind,
		Strike:      strike,
		MarketPrice: price,
		Volume:      1000,
		Expiry:      time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
	}
}

func converged(symbol string, iv float64) models.SolveResult {
	return models.SolveResult{Symbol: symbol, IV: iv, Converged: true}
}

func TestComputeEmptyChain(t *testing.T) {
	agg := NewAggregator()
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	if _, err := agg.Compute(nil, forward, nil); !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("want ErrEmptyChain, got %v", err)
	}
}

func TestComputeAllNonConverged(t *testing.T) {
	agg := NewAggregator()
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	chain := []models.Quote{
		chainQuote("C-5000", models.Call, 5000, 120),
		chainQuote("P-4800", models.Put, 4800, 110),
	}
	solves := map[string]models.SolveResult{
		"C-5000": {Symbol: "C-5000", IV: 0.9, Converged: false},
		"P-4800": {Symbol: "P-4800", IV: 0.8, Converged: false},
	}

	if _, err := agg.Compute(chain, forward, solves); !errors.Is(err, ErrNoUsableOptions) {
		t.Fatalf("want ErrNoUsableOptions, got %v", err)
	}
}

func TestComputeDiscardsInTheMoney(t *testing.T) {
	agg := NewAggregator()
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	chain := []models.Quote{
		chainQuote("C-4800", models.Call, 4800, 160), // ITM call, must be dropped
		chainQuote("P-5000", models.Put, 5000, 170),  // ITM put, must be dropped
		chainQuote("C-5000", models.Call, 5000, 120),
	}
	solves := map[string]models.SolveResult{
		"C-4800": converged("C-4800", 0.70),
		"P-5000": converged("P-5000", 0.65),
		"C-5000": converged("C-5000", 0.30),
	}

	res, err := agg.Compute(chain, forward, solves)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.TotalOptions != 1 {
		t.Fatalf("used %d options, want only the OTM call", res.TotalOptions)
	}
	want := 0.30 * math.Sqrt(TradingDaysPerYear) * 100
	if math.Abs(res.VIX-want) > 1e-9 {
		t.Errorf("vix = %v, want %v", res.VIX, want)
	}
}

func TestComputeEqualWeightsMatchesUnweightedMean(t *testing.T) {
	agg := NewAggregator()
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	// 10 OTM calls and 10 OTM puts at one common market price: the weighted
	// average must degenerate to the plain arithmetic mean.
	var chain []models.Quote
	solves := map[string]models.SolveResult{}
	var sum float64
	n := 0
	for i := 0; i < 10; i++ {
		callSym := chainQuote("C", models.Call, 4950+float64(i)*50, 80)
		callSym.Symbol = callSym.Symbol + string(rune('0'+i))
		putSym := chainQuote("P", models.Put, 4850-float64(i)*50, 80)
		putSym.Symbol = putSym.Symbol + string(rune('0'+i))
		chain = append(chain, callSym, putSym)

		civ := 0.20 + 0.01*float64(i)
		piv := 0.25 + 0.01*float64(i)
		solves[callSym.Symbol] = converged(callSym.Symbol, civ)
		solves[putSym.Symbol] = converged(putSym.Symbol, piv)
		sum += civ + piv
		n += 2
	}

	res, err := agg.Compute(chain, forward, solves)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	mean := sum / float64(n)
	want := mean * math.Sqrt(TradingDaysPerYear) * 100
	if math.Abs(res.VIX-want) > 1e-9 {
		t.Fatalf("equal weights: vix = %v, want arithmetic mean scaling %v", res.VIX, want)
	}
	if res.TotalOptions != n {
		t.Errorf("used %d options, want %d", res.TotalOptions, n)
	}
}

func TestComputeContributionsSumToOne(t *testing.T) {
	agg := NewAggregator()
	forward := models.Forward{Symbol: "CL", Price: 80, Currency: models.CurrencyUSD}

	chain := []models.Quote{
		chainQuote("C-85", models.Call, 85, 2.0),
		chainQuote("C-90", models.Call, 90, 1.2),
		chainQuote("P-75", models.Put, 75, 1.8),
	}
	solves := map[string]models.SolveResult{
		"C-85": converged("C-85", 0.45),
		"C-90": converged("C-90", 0.50),
		"P-75": converged("P-75", 0.55),
	}

	res, err := agg.Compute(chain, forward, solves)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// Call and put contributions partition the weighted mean volatility.
	weightedMean := IndexToIV(res.VIX)
	if got := res.CallContribution + res.PutContribution; math.Abs(got-weightedMean) > 1e-9 {
		t.Errorf("contributions sum = %v, want weighted mean %v", got, weightedMean)
	}
	if res.CallContribution <= 0 || res.PutContribution <= 0 {
		t.Errorf("expected positive contributions on both sides: %+v", res)
	}
}

func TestIndexToIVInvertsScaling(t *testing.T) {
	const iv = 0.3172
	vix := iv * math.Sqrt(TradingDaysPerYear) * 100
	if got := IndexToIV(vix); math.Abs(got-iv) > 1e-12 {
		t.Fatalf("IndexToIV(%v) = %v, want %v", vix, got, iv)
	}
}
