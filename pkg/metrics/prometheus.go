package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsTotal     *prometheus.CounterVec
	gateOutcomes    *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	dropsTotal      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_events_total",
				Help: "Total number of notification events emitted",
			},
			[]string{"kind", "ticker"},
		),
		gateOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_gate_outcomes_total",
				Help: "Total number of gate decisions by outcome",
			},
			[]string{"outcome"},
		),
		deliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_deliveries_total",
				Help: "Total number of channel deliveries attempted",
			},
			[]string{"channel", "status"},
		),
		dropsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_stream_drops_total",
				Help: "Total number of stream events dropped due to slow consumers",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvent records an emitted notification event.
func (r *Recorder) RecordEvent(kind, ticker string) {
	r.eventsTotal.WithLabelValues(kind, ticker).Inc()
}

// RecordGateOutcome records a gate decision outcome (published or blocked).
func (r *Recorder) RecordGateOutcome(outcome string) {
	r.gateOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDelivery records a channel delivery attempt.
func (r *Recorder) RecordDelivery(channel, status string) {
	r.deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordDrop records a dropped stream event.
func (r *Recorder) RecordDrop(reason string) {
	r.dropsTotal.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
