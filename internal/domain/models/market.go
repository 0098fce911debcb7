package models

import (
	"fmt"
	"time"
)

// Currency selects which risk-free rate applies to a contract.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
)

// OptionKind distinguishes calls from puts.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// Quote is a single option quote from a market-data snapshot.
// Immutable once constructed; one Quote feeds one solve.
type Quote struct {
	Symbol       string
	Kind         OptionKind
	Strike       float64
	MarketPrice  float64 // mid or traded price
	Bid          float64
	Ask          float64
	Volume       int64
	OpenInterest int64
	Expiry       time.Time
}

// NewQuote validates the structural invariants: strike and market price
// must be strictly positive. Anything else is a caller contract violation.
func NewQuote(symbol string, kind OptionKind, strike, marketPrice, bid, ask float64, volume, openInterest int64, expiry time.Time) (Quote, error) {
	if strike <= 0 {
		return Quote{}, fmt.Errorf("quote %s: strike must be positive, got %v", symbol, strike)
	}
	if marketPrice <= 0 {
		return Quote{}, fmt.Errorf("quote %s: market price must be positive, got %v", symbol, marketPrice)
	}
	return Quote{
		Symbol:       symbol,
		Kind:         kind,
		Strike:       strike,
		MarketPrice:  marketPrice,
		Bid:          bid,
		Ask:          ask,
		Volume:       volume,
		OpenInterest: openInterest,
		Expiry:       expiry,
	}, nil
}

// Forward is the underlying futures contract a chain of quotes prices against.
type Forward struct {
	Symbol   string
	Price    float64
	Currency Currency
}

// NewForward validates that the forward price is strictly positive.
func NewForward(symbol string, price float64, currency Currency) (Forward, error) {
	if price <= 0 {
		return Forward{}, fmt.Errorf("forward %s: price must be positive, got %v", symbol, price)
	}
	return Forward{Symbol: symbol, Price: price, Currency: currency}, nil
}
