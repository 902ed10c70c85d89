// Package schema validates event envelopes and their typed payloads.
// The schema set is built once at startup and treated as process-wide
// read-only state; Validate itself is a pure function over it.
package schema

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// EnvelopeVersion is the only envelope version currently admitted.
const EnvelopeVersion = "1.0"

type payloadCheck func(raw json.RawMessage) []string

// Validator holds the payload schema set keyed by event type.
type Validator struct {
	payloads map[string]payloadCheck
}

// NewValidator builds the full schema set.
func NewValidator() *Validator {
	return &Validator{
		payloads: map[string]payloadCheck{
			models.EventPanicButton:   checkPanicButton,
			models.EventPlateRead:     checkPlateRead,
			models.EventSpeedSensor:   checkSpeedSensor,
			models.EventAcoustic:      checkAcoustic,
			models.EventCitizenReport: checkCitizenReport,
		},
	}
}

// Validate runs two passes over the envelope: envelope-level structural
// validation, then payload validation against the schema keyed by the
// declared event type. An absent or unknown event type is itself a
// validation error; nothing is ever silently defaulted. Timestamp and
// geo are allowed to be absent here because enrichment fills them.
func (v *Validator) Validate(env *models.EventEnvelope) (bool, []string) {
	var errs []string

	if env == nil {
		return false, []string{"envelope: required"}
	}

	if env.EventVersion == "" {
		errs = append(errs, "event_version: required")
	} else if env.EventVersion != EnvelopeVersion {
		errs = append(errs, fmt.Sprintf("event_version: unsupported version %q", env.EventVersion))
	}

	switch {
	case env.EventType == "":
		errs = append(errs, "event_type: required")
	case !models.KnownEventType(env.EventType):
		errs = append(errs, fmt.Sprintf("event_type: unknown type %q", env.EventType))
	}

	errs = append(errs, checkUUID("event_id", env.EventID)...)
	errs = append(errs, checkUUID("correlation_id", env.CorrelationID)...)
	errs = append(errs, checkUUID("trace_id", env.TraceID)...)

	if env.Producer == "" {
		errs = append(errs, "producer: required")
	}
	if env.Source == "" {
		errs = append(errs, "source: required")
	}
	if env.PartitionKey == "" {
		errs = append(errs, "partition_key: required")
	}

	if env.Severity == "" {
		errs = append(errs, "severity: required")
	} else if !models.KnownSeverity(env.Severity) {
		errs = append(errs, fmt.Sprintf("severity: must be one of info, warning, critical; got %q", env.Severity))
	}

	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		errs = append(errs, "payload: required")
	}

	// Payload pass only makes sense once the type and payload exist.
	if check, ok := v.payloads[env.EventType]; ok && len(env.Payload) > 0 && string(env.Payload) != "null" {
		errs = append(errs, check(env.Payload)...)
	}

	return len(errs) == 0, errs
}

func checkUUID(field, value string) []string {
	if value == "" {
		return []string{field + ": required"}
	}
	if _, err := uuid.Parse(value); err != nil {
		return []string{fmt.Sprintf("%s: must be a UUID, got %q", field, value)}
	}
	return nil
}

func checkPanicButton(raw json.RawMessage) []string {
	var p models.PanicButtonPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return []string{"payload: " + err.Error()}
	}
	var errs []string
	if p.TipoAlerta == "" {
		errs = append(errs, "payload.tipo_alerta: required")
	}
	if p.DeviceID == "" {
		errs = append(errs, "payload.device_id: required")
	}
	if p.UserContext == "" {
		errs = append(errs, "payload.user_context: required")
	}
	return errs
}

func checkPlateRead(raw json.RawMessage) []string {
	var p models.PlateReadPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return []string{"payload: " + err.Error()}
	}
	var errs []string
	if p.Placa == "" {
		errs = append(errs, "payload.placa: required")
	}
	if p.Velocidad < 0 {
		errs = append(errs, "payload.velocidad: must be >= 0")
	}
	if p.Modelo == "" {
		errs = append(errs, "payload.modelo: required")
	}
	if p.Color == "" {
		errs = append(errs, "payload.color: required")
	}
	if p.SensorUbicacion == "" {
		errs = append(errs, "payload.sensor_ubicacion: required")
	}
	return errs
}

func checkSpeedSensor(raw json.RawMessage) []string {
	var p models.SpeedSensorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return []string{"payload: " + err.Error()}
	}
	var errs []string
	if p.Velocidad < 0 {
		errs = append(errs, "payload.velocidad: must be >= 0")
	}
	if p.SensorID == "" {
		errs = append(errs, "payload.sensor_id: required")
	}
	if p.Direccion == "" {
		errs = append(errs, "payload.direccion: required")
	}
	return errs
}

func checkAcoustic(raw json.RawMessage) []string {
	var p models.AcousticPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return []string{"payload: " + err.Error()}
	}
	var errs []string
	if p.TipoSonido == "" {
		errs = append(errs, "payload.tipo_sonido: required")
	}
	if p.Decibeles < 0 {
		errs = append(errs, "payload.decibeles: must be >= 0")
	}
	if p.ProbabilidadCritica < 0 || p.ProbabilidadCritica > 1 {
		errs = append(errs, "payload.probabilidad_critica: must be between 0 and 1")
	}
	return errs
}

func checkCitizenReport(raw json.RawMessage) []string {
	var p models.CitizenReportPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return []string{"payload: " + err.Error()}
	}
	var errs []string
	if p.TipoEvento == "" {
		errs = append(errs, "payload.tipo_evento: required")
	}
	if p.Mensaje == "" {
		errs = append(errs, "payload.mensaje: required")
	}
	if p.Ubicacion == "" {
		errs = append(errs, "payload.ubicacion: required")
	}
	if p.Origen == "" {
		errs = append(errs, "payload.origen: required")
	}
	return errs
}
