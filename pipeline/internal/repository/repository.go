// Package repository persists alert records and the consumed event log,
// and serves the read-only query surface.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// ErrAlertNotFound is returned when an alert lookup matches nothing.
var ErrAlertNotFound = errors.New("alert not found")

// ListAlertsRequest filters the recent-alerts listing.
type ListAlertsRequest struct {
	Zone  string
	Limit int
}

// TypeCount is one entry of a grouped count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// ZoneCount is one entry of a per-zone count.
type ZoneCount struct {
	Zone  string `json:"zone"`
	Count int64  `json:"count"`
}

// AlertStats is the aggregate view served by the query surface.
type AlertStats struct {
	Total        int64       `json:"total"`
	Last24h      int64       `json:"last_24h"`
	AverageScore float64     `json:"average_score"`
	ByType       []TypeCount `json:"by_type"`
	ByZone       []ZoneCount `json:"by_zone"`
}

// StoredEvent is the persisted view of a consumed envelope.
type StoredEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Zone          string    `json:"zone"`
	Severity      string    `json:"severity"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository is the persistence contract for the pipeline service.
type Repository interface {
	// SaveAlert persists one alert record.
	SaveAlert(ctx context.Context, rec *models.AlertRecord) error

	// SaveEvent records a consumed envelope. It reports false without
	// error when the event id was already recorded, which is how the
	// consumer detects duplicate delivery.
	SaveEvent(ctx context.Context, env *models.EventEnvelope) (bool, error)

	// ListAlerts returns recent alerts, newest first, optionally scoped
	// to a zone.
	ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.AlertRecord, error)

	// Stats aggregates counts by type and zone, the 24h rolling count,
	// and the average score.
	Stats(ctx context.Context) (*AlertStats, error)

	// ListRecentEvents returns recently consumed events, newest first.
	ListRecentEvents(ctx context.Context, limit int, zone string) ([]*StoredEvent, error)

	Close()
}
