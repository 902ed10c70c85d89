package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanwatch_ingress_events_total",
			Help: "Total number of events received, by outcome",
		},
		[]string{"event_type", "status"},
	)

	DeadLettersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanwatch_ingress_deadletters_total",
			Help: "Total number of dead-letter records written, by reason",
		},
		[]string{"reason"},
	)

	DeadLetterDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "urbanwatch_ingress_deadletter_drops_total",
			Help: "Dead-letter records lost because the secondary publish failed",
		},
	)

	ValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urbanwatch_ingress_validation_duration_seconds",
			Help:    "Duration of envelope and payload validation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urbanwatch_ingress_publish_duration_seconds",
			Help:    "Duration of standardized channel publishes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
