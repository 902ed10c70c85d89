package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/deadletter"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/enrich"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/schema"
)

func newTestService(bus *messaging.MemoryBus) *IngestService {
	logger := logging.Default()
	enricher := enrich.New("Zona 10", map[string]models.Coordinates{
		"Zona 10": {Lat: 14.6091, Lon: -90.5252},
	})
	dlq := deadletter.NewWriter(bus, logger)
	return NewIngestService(schema.NewValidator(), enricher, bus, dlq, logger)
}

func validEnvelope(t *testing.T) json.RawMessage {
	t.Helper()
	raw := `{
		"event_version": "1.0",
		"event_type": "panic.button",
		"event_id": "9f1c2d3e-0a1b-4c5d-8e7f-102938475601",
		"producer": "panic-gateway",
		"source": "device-742",
		"correlation_id": "1b2c3d4e-5f60-4718-92a3-b4c5d6e7f801",
		"trace_id": "2c3d4e5f-6071-4829-a3b4-c5d6e7f80912",
		"partition_key": "Zona 10",
		"severity": "critical",
		"payload": {"tipo_alerta": "panico", "device_id": "device-742"}
	}`
	return json.RawMessage(raw)
}

func TestIngestRawPublishesStandardized(t *testing.T) {
	bus := messaging.NewMemoryBus()
	svc := newTestService(bus)

	err := svc.IngestRaw(context.Background(), validEnvelope(t))
	require.NoError(t, err)

	published := bus.Published(messaging.SubjectEventsStandardized)
	require.Len(t, published, 1)

	var env models.EventEnvelope
	require.NoError(t, json.Unmarshal(published[0], &env))
	assert.Equal(t, models.EventPanicButton, env.EventType)
	require.NotNil(t, env.Timestamp, "enrichment must fill the timestamp")
	require.NotNil(t, env.Geo)
	assert.Equal(t, "Zona 10", env.Geo.Zone)

	assert.Empty(t, bus.Published(messaging.SubjectEventsDeadLetter))
}

func TestIngestRawValidationFailureDeadLetters(t *testing.T) {
	bus := messaging.NewMemoryBus()
	svc := newTestService(bus)

	raw := json.RawMessage(`{
		"event_version": "2.0",
		"event_type": "panic.button",
		"event_id": "not-a-uuid",
		"producer": "panic-gateway",
		"source": "device-742",
		"correlation_id": "1b2c3d4e-5f60-4718-92a3-b4c5d6e7f801",
		"trace_id": "2c3d4e5f-6071-4829-a3b4-c5d6e7f80912",
		"partition_key": "Zona 10",
		"severity": "critical",
		"payload": {"tipo_alerta": "panico", "device_id": "device-742"}
	}`)

	err := svc.IngestRaw(context.Background(), raw)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)

	// Rejected envelopes never reach the standardized channel.
	assert.Empty(t, bus.Published(messaging.SubjectEventsStandardized))

	dead := bus.Published(messaging.SubjectEventsDeadLetter)
	require.Len(t, dead, 1)
	var rec models.DeadLetterRecord
	require.NoError(t, json.Unmarshal(dead[0], &rec))
	assert.Equal(t, models.ReasonSchemaValidationFailed, rec.Reason)
	assert.Equal(t, verr.Errors, rec.ValidationErrors)
	assert.JSONEq(t, string(raw), string(rec.OriginalEvent))
}

func TestIngestRawMalformedJSONDeadLetters(t *testing.T) {
	bus := messaging.NewMemoryBus()
	svc := newTestService(bus)

	err := svc.IngestRaw(context.Background(), json.RawMessage(`{"event_type":`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, bus.Published(messaging.SubjectEventsDeadLetter), 1)
	assert.Empty(t, bus.Published(messaging.SubjectEventsStandardized))
}

func TestIngestRawPublishFailureDeadLetters(t *testing.T) {
	bus := messaging.NewMemoryBus()
	svc := newTestService(bus)

	cause := fmt.Errorf("%w: connection refused", messaging.ErrBusUnavailable)
	bus.FailWith(messaging.SubjectEventsStandardized, cause)

	raw := validEnvelope(t)
	err := svc.IngestRaw(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, messaging.ErrBusUnavailable))

	dead := bus.Published(messaging.SubjectEventsDeadLetter)
	require.Len(t, dead, 1)
	var rec models.DeadLetterRecord
	require.NoError(t, json.Unmarshal(dead[0], &rec))
	assert.Equal(t, models.ReasonBusPublishError, rec.Reason)
	assert.JSONEq(t, string(raw), string(rec.OriginalEvent))
}

func TestIngestBatchMixedOutcomes(t *testing.T) {
	bus := messaging.NewMemoryBus()
	svc := newTestService(bus)

	bad := json.RawMessage(`{"event_version": "1.0", "event_type": "no.such.type"}`)
	res := svc.IngestBatch(context.Background(), []json.RawMessage{validEnvelope(t), bad, validEnvelope(t)})

	assert.Equal(t, 2, res.Accepted)
	assert.NotEmpty(t, res.ValidationErrors)
	assert.NoError(t, res.BusError)
	assert.Len(t, bus.Published(messaging.SubjectEventsStandardized), 2)
	assert.Len(t, bus.Published(messaging.SubjectEventsDeadLetter), 1)
}
