package engine

import "VolPulse/internal/domain/models"

// DefaultCommodities is the built-in instrument table. Thresholds are
// absolute annualized volatility fractions, used only as the fallback when
// no percentile history exists.
func DefaultCommodities() map[string]models.CommodityConfig {
	return map[string]models.CommodityConfig{
		"SLV": {
			Symbol:           "SLV",
			Name:             "Silver",
			Category:         models.PreciousMetal,
			Currency:         models.CurrencyUSD,
			HighIVThreshold:  0.40,
			ExtremeThreshold: 0.60,
		},
		"GC": {
			Symbol:           "GC",
			Name:             "Gold",
			Category:         models.PreciousMetal,
			Currency:         models.CurrencyUSD,
			HighIVThreshold:  0.25, // gold trades calmer than the rest of the complex
			ExtremeThreshold: 0.40,
		},
		"CL": {
			Symbol:           "CL",
			Name:             "Crude Oil",
			Category:         models.Energy,
			Currency:         models.CurrencyUSD,
			HighIVThreshold:  0.50,
			ExtremeThreshold: 0.80,
		},
		"SC": {
			Symbol:           "SC",
			Name:             "Shanghai Crude",
			Category:         models.Energy,
			Currency:         models.CurrencyCNY,
			HighIVThreshold:  0.45,
			ExtremeThreshold: 0.70,
		},
		"S": {
			Symbol:           "S",
			Name:             "Soybeans",
			Category:         models.Agriculture,
			Currency:         models.CurrencyUSD,
			HighIVThreshold:  0.25,
			ExtremeThreshold: 0.40,
		},
		"SR": {
			Symbol:           "SR",
			Name:             "White Sugar",
			Category:         models.Agriculture,
			Currency:         models.CurrencyCNY,
			HighIVThreshold:  0.20,
			ExtremeThreshold: 0.35,
		},
		"I": {
			Symbol:           "I",
			Name:             "Iron Ore",
			Category:         models.Ferrous,
			Currency:         models.CurrencyCNY,
			HighIVThreshold:  0.50,
			ExtremeThreshold: 0.90,
		},
		"RB": {
			Symbol:           "RB",
			Name:             "Rebar",
			Category:         models.Ferrous,
			Currency:         models.CurrencyCNY,
			HighIVThreshold:  0.45,
			ExtremeThreshold: 0.80,
		},
		"HG": {
			Symbol:           "HG",
			Name:             "Copper",
			Category:         models.NonFerrous,
			Currency:         models.CurrencyUSD,
			HighIVThreshold:  0.35,
			ExtremeThreshold: 0.55,
		},
	}
}
