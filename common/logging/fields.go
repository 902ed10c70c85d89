package logging

import "log/slog"

// Common field names used across services so log pipelines can rely on
// stable keys.
const (
	FieldService   = "service"
	FieldEventID   = "event_id"
	FieldEventType = "event_type"
	FieldZone      = "zone"
	FieldAlertID   = "alert_id"
	FieldEntity    = "entity"
	FieldSubject   = "subject"
	FieldReason    = "reason"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// EventID returns a slog attribute for the envelope event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// EventType returns a slog attribute for the envelope event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Zone returns a slog attribute for the geographic zone.
func Zone(zone string) slog.Attr {
	return slog.String(FieldZone, zone)
}

// AlertID returns a slog attribute for an alert ID.
func AlertID(id string) slog.Attr {
	return slog.String(FieldAlertID, id)
}

// Entity returns a slog attribute for a dispatch entity.
func Entity(name string) slog.Attr {
	return slog.String(FieldEntity, name)
}

// Subject returns a slog attribute for a bus subject.
func Subject(s string) slog.Attr {
	return slog.String(FieldSubject, s)
}

// Reason returns a slog attribute for a dead-letter reason.
func Reason(r string) slog.Attr {
	return slog.String(FieldReason, r)
}

// Error returns a slog attribute for an error value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for a duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}
