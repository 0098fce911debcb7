package engine

import (
	"testing"

	"VolPulse/internal/domain/models"
)

func TestRateProviderDefaults(t *testing.T) {
	p := NewRateProvider(nil)

	if got := p.Rate(models.CurrencyUSD); got != 0.045 {
		t.Errorf("USD rate = %v, want 0.045", got)
	}
	if got := p.Rate(models.CurrencyCNY); got != 0.020 {
		t.Errorf("CNY rate = %v, want 0.020", got)
	}
	if got := p.Rate(models.Currency("EUR")); got != defaultFallbackRate {
		t.Errorf("unknown currency rate = %v, want fallback %v", got, defaultFallbackRate)
	}
}

func TestRateProviderOverrides(t *testing.T) {
	p := NewRateProvider(map[models.Currency]float64{
		models.CurrencyUSD: 0.0525,
	})

	if got := p.Rate(models.CurrencyUSD); got != 0.0525 {
		t.Errorf("overridden USD rate = %v, want 0.0525", got)
	}
	if got := p.Rate(models.CurrencyCNY); got != 0.020 {
		t.Errorf("CNY rate must keep the built-in value, got %v", got)
	}
}
