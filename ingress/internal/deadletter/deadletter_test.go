package deadletter

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

func TestValidationFailure(t *testing.T) {
	bus := messaging.NewMemoryBus()
	w := NewWriter(bus, logging.Default())

	original := json.RawMessage(`{"event_type":"sensor.lpr"}`)
	w.ValidationFailure(context.Background(), original, []string{"placa: required"})

	published := bus.Published(messaging.SubjectEventsDeadLetter)
	require.Len(t, published, 1)

	var rec models.DeadLetterRecord
	require.NoError(t, json.Unmarshal(published[0], &rec))
	assert.Equal(t, models.ReasonSchemaValidationFailed, rec.Reason)
	assert.Equal(t, []string{"placa: required"}, rec.ValidationErrors)
	assert.Empty(t, rec.Error)
	assert.JSONEq(t, string(original), string(rec.OriginalEvent))
	assert.False(t, rec.Timestamp.IsZero())
}

func TestPublishFailure(t *testing.T) {
	bus := messaging.NewMemoryBus()
	w := NewWriter(bus, logging.Default())

	w.PublishFailure(context.Background(), json.RawMessage(`{}`), errors.New("broker gone"))

	published := bus.Published(messaging.SubjectEventsDeadLetter)
	require.Len(t, published, 1)

	var rec models.DeadLetterRecord
	require.NoError(t, json.Unmarshal(published[0], &rec))
	assert.Equal(t, models.ReasonBusPublishError, rec.Reason)
	assert.Equal(t, "broker gone", rec.Error)
	assert.Empty(t, rec.ValidationErrors)
}

func TestWrite_SwallowsSecondaryFailure(t *testing.T) {
	bus := messaging.NewMemoryBus()
	bus.FailWith(messaging.SubjectEventsDeadLetter, errors.New("dlq down"))
	w := NewWriter(bus, logging.Default())

	// Must not panic and must not surface the secondary error.
	w.ValidationFailure(context.Background(), json.RawMessage(`{}`), []string{"x"})
	assert.Empty(t, bus.Published(messaging.SubjectEventsDeadLetter))
}
