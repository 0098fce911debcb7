package models

import "time"

// SolveResult is the outcome of inverting the pricing model for one quote.
// Converged=false means the volatility value must not be trusted downstream.
type SolveResult struct {
	Symbol           string  `json:"symbol"`
	IV               float64 `json:"iv"` // annualized fraction, 0.25 = 25%
	Iterations       int     `json:"iterations"`
	Converged        bool    `json:"converged"`
	TheoreticalPrice float64 `json:"theoretical_price"`
	Error            float64 `json:"error"` // theoretical - market, signed
	Vega             float64 `json:"vega"`
}

// IndexResult is the variance-swap-style index for one underlying.
// IVRank and IVPercentile are nil until enough history has accumulated.
type IndexResult struct {
	Symbol           string    `json:"symbol"`
	VIX              float64   `json:"vix"` // annualized vol as a percentage
	CallContribution float64   `json:"call_contribution"`
	PutContribution  float64   `json:"put_contribution"`
	TotalOptions     int       `json:"total_options"`
	ComputedAt       time.Time `json:"computed_at"`
	IVRank           *float64  `json:"iv_rank,omitempty"`       // 0-100
	IVPercentile     *float64  `json:"iv_percentile,omitempty"` // 0-100
	SampleSize       int       `json:"sample_size"`
}

// HistoryPoint is one persisted volatility observation.
type HistoryPoint struct {
	Timestamp time.Time `json:"ts"`
	IV        float64   `json:"iv"`
}

// SignalBasis records which calibration produced a signal, so callers can
// tell a percentile-ranked answer from an absolute-threshold fallback.
type SignalBasis string

const (
	BasisPercentile SignalBasis = "percentile"
	BasisAbsolute   SignalBasis = "absolute"
)

// Signal is the final recommendation attached to an index computation.
type Signal struct {
	Symbol         string      `json:"symbol"`
	Level          string      `json:"level"`
	Narrative      string      `json:"narrative"`
	Advice         string      `json:"advice"`
	Basis          SignalBasis `json:"basis"`
	ShouldAlert    bool        `json:"should_alert"`
	AlertThreshold float64     `json:"alert_threshold"`
}
