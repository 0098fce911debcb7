package engine

import "VolPulse/internal/domain/models"

// DefaultAlertThreshold is the IV Percentile above which an alert fires.
const DefaultAlertThreshold = 80

// AlertLevel is one rung of the universal percentile ladder. The same
// calibration applies to every instrument: an expensive percentile is
// comparable across commodities where an absolute volatility is not.
type AlertLevel struct {
	Level     string
	Narrative string
	Advice    string
}

// AlertLevelFor maps an IV Percentile to the universal ladder:
// >=95 extreme, >=80 high, >=50 elevated, >=20 normal, else low.
func AlertLevelFor(percentile float64) AlertLevel {
	switch {
	case percentile >= 95:
		return AlertLevel{
			Level:     "extreme",
			Narrative: "among the wildest days of the past year",
			Advice:    "mean-reversion window: volatility sellers' best entry",
		}
	case percentile >= 80:
		return AlertLevel{
			Level:     "high",
			Narrative: "pre-event positioning or panic",
			Advice:    "options rich: favor selling premium or staging spot entries",
		}
	case percentile >= 50:
		return AlertLevel{
			Level:     "elevated",
			Narrative: "trend forming or minor stress",
			Advice:    "watch for breakouts",
		}
	case percentile >= 20:
		return AlertLevel{
			Level:     "normal",
			Narrative: "routine two-way trade",
			Advice:    "trade the technicals",
		}
	default:
		return AlertLevel{
			Level:     "low",
			Narrative: "market asleep or complacent",
			Advice:    "options cheap: long gamma positioning is inexpensive",
		}
	}
}

// AbsoluteLevelFor is the fallback when no percentile history exists,
// judged against the per-instrument absolute thresholds.
func AbsoluteLevelFor(vix float64, cfg models.CommodityConfig) AlertLevel {
	switch {
	case vix > cfg.ExtremeThreshold*100:
		return AlertLevel{
			Level:     "extreme",
			Narrative: "above the absolute extreme threshold",
			Advice:    "panic pricing: consider contrarian entries",
		}
	case vix > cfg.HighIVThreshold*100:
		return AlertLevel{
			Level:     "high",
			Narrative: "above the absolute high threshold",
			Advice:    "stand aside until volatility settles",
		}
	case vix < 12:
		return AlertLevel{
			Level:     "low",
			Narrative: "below complacency floor",
			Advice:    "guard against volatility expansion",
		}
	default:
		return AlertLevel{
			Level:     "normal",
			Narrative: "within the absolute normal band",
			Advice:    "trade the technicals",
		}
	}
}

// ShouldAlert reports whether the percentile clears the alert threshold.
func ShouldAlert(percentile, threshold float64) bool {
	return percentile >= threshold
}
