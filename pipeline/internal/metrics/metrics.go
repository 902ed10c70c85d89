// Package metrics exposes Prometheus collectors for the pipeline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessedTotal counts consumed standardized events by outcome.
	EventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanwatch_pipeline_events_processed_total",
		Help: "Standardized events consumed, labeled by event type and outcome.",
	}, []string{"event_type", "status"})

	// AnomaliesTotal counts candidate anomalies by level.
	AnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanwatch_pipeline_anomalies_total",
		Help: "Candidate anomalies produced by the detection engine, by level.",
	}, []string{"level"})

	// CompositeSignalsTotal counts composite pattern hits by zone.
	CompositeSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanwatch_pipeline_composite_signals_total",
		Help: "Composite coordinated-incident signals surfaced, by zone.",
	}, []string{"zone"})

	// AlertsPersistedTotal counts alert records written to storage.
	AlertsPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanwatch_pipeline_alerts_persisted_total",
		Help: "Alert records persisted.",
	})

	// DispatchesTotal counts per-entity dispatch attempts by outcome.
	DispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanwatch_pipeline_dispatches_total",
		Help: "Entity dispatch attempts, labeled by entity and outcome.",
	}, []string{"entity", "status"})

	// ProcessingDuration observes full per-event pipeline latency.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbanwatch_pipeline_processing_duration_seconds",
		Help:    "End-to-end processing time per consumed event.",
		Buckets: prometheus.DefBuckets,
	})

	// DispatchDuration observes per-entity dispatch call latency.
	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbanwatch_pipeline_dispatch_duration_seconds",
		Help:    "Per-entity dispatch call time.",
		Buckets: prometheus.DefBuckets,
	})
)
