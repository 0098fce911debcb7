package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	solvesTotal     *prometheus.CounterVec
	solveIterations *prometheus.HistogramVec
	indexLevel      *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		solvesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volpulse_solves_total",
				Help: "Total volatility solves by convergence result",
			},
			[]string{"symbol", "converged"},
		),
		solveIterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volpulse_solve_iterations",
				Help:    "Newton iterations per solve",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
			},
			[]string{"symbol"},
		),
		indexLevel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volpulse_index_level",
				Help: "Last computed volatility index per underlying",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSolve records one solve attempt and its iteration count.
func (r *Recorder) RecordSolve(symbol string, iterations int, converged bool) {
	result := "false"
	if converged {
		result = "true"
	}
	r.solvesTotal.WithLabelValues(symbol, result).Inc()
	r.solveIterations.WithLabelValues(symbol).Observe(float64(iterations))
}

// RecordIndex records the latest index value for an underlying.
func (r *Recorder) RecordIndex(symbol string, vix float64) {
	r.indexLevel.WithLabelValues(symbol).Set(vix)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
