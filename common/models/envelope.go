// Package models defines the event and alert types shared by the
// urbanwatch services. An EventEnvelope is immutable once published to
// the standardized channel.
package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Wire values for envelope event types.
const (
	EventPanicButton   = "panic.button"
	EventPlateRead     = "sensor.lpr"
	EventSpeedSensor   = "sensor.speed"
	EventAcoustic      = "sensor.acoustic"
	EventCitizenReport = "citizen.report"
)

// EventTypes lists every admissible event type, in wire order.
var EventTypes = []string{
	EventPanicButton,
	EventPlateRead,
	EventSpeedSensor,
	EventAcoustic,
	EventCitizenReport,
}

// KnownEventType reports whether t is one of the admissible event types.
func KnownEventType(t string) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Envelope severity values.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// KnownSeverity reports whether s is an admissible severity.
func KnownSeverity(s string) bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// GeoLocation places an event in a named zone. Lat and Lon are pointers
// so the enrichment stage can distinguish absent from zero.
type GeoLocation struct {
	Zone string   `json:"zone,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// EventEnvelope is the outer structure of every sensor event: common
// fields plus a typed payload. Timestamp and Geo may be absent on intake
// and are filled by enrichment before the envelope reaches the bus.
type EventEnvelope struct {
	EventVersion  string          `json:"event_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	Producer      string          `json:"producer"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id"`
	TraceID       string          `json:"trace_id"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
	PartitionKey  string          `json:"partition_key"`
	Geo           *GeoLocation    `json:"geo,omitempty"`
	Severity      string          `json:"severity"`
	Payload       json.RawMessage `json:"payload"`
}

// Zone returns the envelope's zone or empty string when geo is absent.
func (e *EventEnvelope) Zone() string {
	if e.Geo == nil {
		return ""
	}
	return e.Geo.Zone
}

// DecodePayload unmarshals the typed payload into dst.
func (e *EventEnvelope) DecodePayload(dst interface{}) error {
	return json.Unmarshal(e.Payload, dst)
}
