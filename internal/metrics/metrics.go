package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts processed webhook events by terminal outcome.
	// Labels: outcome (delivered/skipped/failed/duplicate/rejected)
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_events_total",
			Help: "Total number of webhook events by terminal outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration observes per-stage pipeline latency in seconds.
	// Labels: stage (summarize/publish)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// QueueDepth tracks the number of events waiting for a worker.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_queue_depth",
			Help: "Number of accepted events waiting for a pipeline worker",
		},
	)
)

// RecordOutcome increments the outcome counter.
func RecordOutcome(outcome string) {
	EventsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records one stage duration.
func ObserveStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}
