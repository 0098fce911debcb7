package repository

import (
	"context"

	"VolPulse/internal/domain/models"
)

// HistoryStore persists the per-instrument rolling volatility history.
// Save is a point-in-time snapshot; Load returns everything previously
// saved, grouped by symbol. Round-trip must be lossless for the
// (timestamp, value) pairs actually persisted.
type HistoryStore interface {
	Save(ctx context.Context, history map[string][]models.HistoryPoint) error
	Load(ctx context.Context) (map[string][]models.HistoryPoint, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertPublisher emits alert events when the alert policy fires.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, index models.IndexResult, signal models.Signal) error
	Close() error
}

// Metrics records engine observability counters.
type Metrics interface {
	RecordSolve(symbol string, iterations int, converged bool)
	RecordIndex(symbol string, vix float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
