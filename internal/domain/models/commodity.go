package models

// CommodityCategory groups instruments for display and reporting.
type CommodityCategory string

const (
	PreciousMetal CommodityCategory = "precious_metal"
	Energy        CommodityCategory = "energy"
	Agriculture   CommodityCategory = "agriculture"
	Ferrous       CommodityCategory = "ferrous"
	NonFerrous    CommodityCategory = "non_ferrous"
)

// CommodityConfig holds per-instrument display metadata and the absolute
// volatility thresholds used only when no percentile history exists.
// Loaded once at startup, read-only after that.
type CommodityConfig struct {
	Symbol           string            `yaml:"symbol" json:"symbol"`
	Name             string            `yaml:"name" json:"name"`
	Category         CommodityCategory `yaml:"category" json:"category"`
	Currency         Currency          `yaml:"currency" json:"currency"`
	HighIVThreshold  float64           `yaml:"high_iv_threshold" json:"high_iv_threshold"`
	ExtremeThreshold float64           `yaml:"extreme_iv_threshold" json:"extreme_iv_threshold"`
}
