package engine

import "VolPulse/internal/domain/models"

// Built-in annualized risk-free rates; stale values are expected to be
// overridden at construction.
const defaultFallbackRate = 0.03

var defaultRates = map[models.Currency]float64{
	models.CurrencyUSD: 0.045, // US treasury yield
	models.CurrencyCNY: 0.020, // Shibor
}

// RateProvider maps a currency to its annualized risk-free discount rate.
// Pure lookup; no mutation after construction.
type RateProvider struct {
	rates    map[models.Currency]float64
	fallback float64
}

// NewRateProvider builds a provider from the built-in table, applying any
// caller-supplied overrides on top.
func NewRateProvider(overrides map[models.Currency]float64) *RateProvider {
	rates := make(map[models.Currency]float64, len(defaultRates))
	for c, r := range defaultRates {
		rates[c] = r
	}
	for c, r := range overrides {
		rates[c] = r
	}
	return &RateProvider{rates: rates, fallback: defaultFallbackRate}
}

// Rate returns the rate for a currency, or the fallback for unknown ones.
func (p *RateProvider) Rate(currency models.Currency) float64 {
	if r, ok := p.rates[currency]; ok {
		return r
	}
	return p.fallback
}
