// Package messaging defines the standard subject names for the urbanwatch bus.
package messaging

// The pipeline moves events across three logical channels.
const (
	// SubjectEventsStandardized carries validated, enriched envelopes.
	SubjectEventsStandardized = "events.standardized"

	// SubjectEventsDeadLetter carries events that failed validation or a
	// downstream publish, kept for inspection rather than silent loss.
	SubjectEventsDeadLetter = "events.dlq"

	// SubjectAlertsCorrelated carries alert batches produced by the
	// aggregator, consumed by the dispatch router and any monitors.
	SubjectAlertsCorrelated = "alerts.correlated"
)

// Queue group names for load-balanced consumers. Workers in the same
// group share messages, so each event is processed once per group.
const (
	QueueDetectWorkers   = "detect-workers"   // Detection/correlation consumers
	QueueDispatchWorkers = "dispatch-workers" // Alert batch dispatchers
)
