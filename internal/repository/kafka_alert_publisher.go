package repository

import (
	"context"
	"time"

	"VolPulse/internal/domain/models"
	domrepo "VolPulse/internal/domain/repository"
	pkgkafka "VolPulse/pkg/kafka"
)

// alertEvent is the wire shape of a published volatility alert.
type alertEvent struct {
	Symbol       string    `json:"symbol"`
	VIX          float64   `json:"vix"`
	IVRank       *float64  `json:"iv_rank,omitempty"`
	IVPercentile *float64  `json:"iv_percentile,omitempty"`
	Level        string    `json:"level"`
	Narrative    string    `json:"narrative"`
	Advice       string    `json:"advice"`
	Basis        string    `json:"basis"`
	Threshold    float64   `json:"threshold"`
	ComputedAt   time.Time `json:"computed_at"`
}

// KafkaAlertPublisher emits alert events keyed by instrument so consumers
// see per-symbol ordering.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, index models.IndexResult, signal models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(index.Symbol), alertEvent{
		Symbol:       index.Symbol,
		VIX:          index.VIX,
		IVRank:       index.IVRank,
		IVPercentile: index.IVPercentile,
		Level:        signal.Level,
		Narrative:    signal.Narrative,
		Advice:       signal.Advice,
		Basis:        string(signal.Basis),
		Threshold:    signal.AlertThreshold,
		ComputedAt:   index.ComputedAt,
	})
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
