package models

import "time"

// Anomaly levels, as they appear on the wire and in operator consoles.
const (
	LevelCritico = "CRÍTICO"
	LevelAlto    = "ALTO"
	LevelMedio   = "MEDIO"
	LevelInfo    = "INFO"
)

// ScoreForLevel maps an anomaly level to its numeric score.
// The mapping is fixed: CRÍTICO=100, ALTO=75, MEDIO=50, INFO=25, unknown=0.
func ScoreForLevel(level string) float64 {
	switch level {
	case LevelCritico:
		return 100
	case LevelAlto:
		return 75
	case LevelMedio:
		return 50
	case LevelInfo:
		return 25
	default:
		return 0
	}
}

// CandidateAnomaly is produced by the detection engine from one envelope.
// Candidates are ephemeral: they are consumed immediately by the
// aggregator and never persisted individually.
type CandidateAnomaly struct {
	Level   string `json:"level"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Coordinates is the flat lat/lon pair in the alert batch wire format.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AlertBatch is the message published to the alerts channel: one batch
// per source event, summarizing all of its candidate anomalies in order.
type AlertBatch struct {
	AlertID       string             `json:"alert_id"`
	CorrelationID string             `json:"correlation_id"`
	SourceEventID string             `json:"source_event_id"`
	EventType     string             `json:"event_type"`
	Zone          string             `json:"zone"`
	Coordinates   Coordinates        `json:"coordinates"`
	Timestamp     time.Time          `json:"timestamp"`
	Alerts        []CandidateAnomaly `json:"alerts"`
}

// Evidence is the structured snapshot of the source event stored with a
// persisted alert.
type Evidence struct {
	SourceEventID string    `json:"source_event_id"`
	EventType     string    `json:"event_type"`
	Level         string    `json:"level"`
	Message       string    `json:"message"`
	Details       string    `json:"details"`
	Timestamp     time.Time `json:"timestamp"`
}

// AlertRecord is the persisted form of one candidate anomaly. The alert
// ID is generated fresh at save time, independent of the source event ID.
type AlertRecord struct {
	AlertID       string    `json:"alert_id"`
	CorrelationID string    `json:"correlation_id"`
	Type          string    `json:"type"`
	Score         float64   `json:"score"`
	Zone          string    `json:"zone"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Evidence      Evidence  `json:"evidence"`
	CreatedAt     time.Time `json:"created_at"`
}
