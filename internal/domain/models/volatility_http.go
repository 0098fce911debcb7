package models

// Requests for the volatility HTTP endpoints. Defined in domain for consistency and reuse.

type QuoteRequest struct {
	Symbol       string  `json:"symbol" validate:"required"`
	Kind         string  `json:"kind" validate:"required,oneof=call put"`
	Strike       float64 `json:"strike" validate:"required,gt=0"`
	MarketPrice  float64 `json:"market_price" validate:"required,gt=0"`
	Bid          float64 `json:"bid" validate:"gte=0"`
	Ask          float64 `json:"ask" validate:"gte=0"`
	Volume       int64   `json:"volume" validate:"gte=0"`
	OpenInterest int64   `json:"open_interest" validate:"gte=0"`
	Expiry       string  `json:"expiry" validate:"required"` // RFC3339 or unix seconds
}

type ForwardRequest struct {
	Symbol   string  `json:"symbol" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Currency string  `json:"currency" default:"USD" validate:"oneof=USD CNY"`
}

type SolveRequest struct {
	Commodity string         `json:"commodity" validate:"required"`
	Quote     QuoteRequest   `json:"quote" validate:"required"`
	Forward   ForwardRequest `json:"forward" validate:"required"`
}

type IndexRequest struct {
	Commodity string         `json:"commodity" validate:"required"`
	Quotes    []QuoteRequest `json:"quotes" validate:"required,min=1,dive"`
	Forward   ForwardRequest `json:"forward" validate:"required"`
}

type HistoryMetricsRequest struct {
	Symbol    string  `query:"symbol" json:"symbol" validate:"required"`
	CurrentIV float64 `query:"current_iv" json:"current_iv" validate:"required,gt=0"`
}
