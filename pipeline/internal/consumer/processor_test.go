package consumer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/aggregate"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/correlation"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/detect"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/dispatch"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/repository"
)

// recordingEntity captures dispatch calls per entity path.
type recordingEntity struct {
	mu    sync.Mutex
	calls map[string][]models.AlertBatch
	srv   *httptest.Server
}

func newRecordingEntity(t *testing.T) *recordingEntity {
	t.Helper()
	re := &recordingEntity{calls: make(map[string][]models.AlertBatch)}
	re.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch models.AlertBatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))

		re.mu.Lock()
		re.calls[r.URL.Path] = append(re.calls[r.URL.Path], batch)
		re.mu.Unlock()

		json.NewEncoder(w).Encode(models.DispatchResponse{
			Entity: r.URL.Path, Status: "received", Timestamp: time.Now().UTC(),
		})
	}))
	t.Cleanup(re.srv.Close)
	return re
}

func (re *recordingEntity) batches(entity string) []models.AlertBatch {
	re.mu.Lock()
	defer re.mu.Unlock()
	return re.calls["/dispatch/"+entity]
}

type fixture struct {
	processor *Processor
	repo      *repository.MemoryRepository
	store     *correlation.MemoryStore
	bus       *messaging.MemoryBus
	entity    *recordingEntity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	store := correlation.NewMemoryStore(5 * time.Minute)
	bus := messaging.NewMemoryBus()
	entity := newRecordingEntity(t)
	logger := logging.Default()

	aggregator := aggregate.New(repo, bus, logger)
	dispatcher := dispatch.New(dispatch.Config{
		BaseURL: entity.srv.URL + "/dispatch",
		Timeout: 2 * time.Second,
	}, logger)

	return &fixture{
		processor: NewProcessor(repo, detect.NewEngine(), store, aggregator, dispatcher, logger),
		repo:      repo,
		store:     store,
		bus:       bus,
		entity:    entity,
	}
}

func deliver(t *testing.T, f *fixture, eventType, severity, zone, payload string) string {
	t.Helper()
	ts := time.Now().UTC()
	lat, lon := 14.6091, -90.5252
	env := models.EventEnvelope{
		EventVersion:  "1.0",
		EventType:     eventType,
		EventID:       uuid.New().String(),
		CorrelationID: uuid.New().String(),
		Timestamp:     &ts,
		Geo:           &models.GeoLocation{Zone: zone, Lat: &lat, Lon: &lon},
		Severity:      severity,
		Payload:       json.RawMessage(payload),
	}
	data, err := json.Marshal(&env)
	require.NoError(t, err)

	require.NoError(t, f.processor.HandleMessage(context.Background(), &messaging.Message{
		Subject: messaging.SubjectEventsStandardized,
		Data:    data,
	}))
	return env.EventID
}

func TestProcessorFullRun(t *testing.T) {
	f := newFixture(t)

	deliver(t, f, models.EventPlateRead, models.SeverityInfo, "Zona 10",
		`{"placa": "P-123ABC", "velocidad": 130}`)

	ctx := context.Background()

	// Two candidates persisted: CRÍTICO speed plus INFO registry.
	alerts, err := f.repo.ListAlerts(ctx, repository.ListAlertsRequest{})
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// One batch published to the alerts channel.
	require.Len(t, f.bus.Published(messaging.SubjectAlertsCorrelated), 1)

	// Dispatch reached traffic and national police.
	assert.Len(t, f.entity.batches(models.EntityPoliciaTransito), 1)
	assert.Len(t, f.entity.batches(models.EntityPoliciaNacional), 1)

	// The event itself is on record.
	events, err := f.repo.ListRecentEvents(ctx, 10, "Zona 10")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestProcessorNoCandidatesNoAlert(t *testing.T) {
	f := newFixture(t)

	deliver(t, f, models.EventPlateRead, models.SeverityInfo, "Zona 4",
		`{"placa": "P-1", "velocidad": 40}`)

	alerts, err := f.repo.ListAlerts(context.Background(), repository.ListAlertsRequest{})
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, f.bus.Published(messaging.SubjectAlertsCorrelated))

	// The correlation signature is written regardless.
	ok, err := f.store.Exists(context.Background(), "Zona 4", models.EventPlateRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessorDuplicateDeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)

	ts := time.Now().UTC()
	env := models.EventEnvelope{
		EventType:     models.EventPanicButton,
		EventID:       uuid.New().String(),
		CorrelationID: uuid.New().String(),
		Timestamp:     &ts,
		Geo:           &models.GeoLocation{Zone: "Zona 10"},
		Severity:      models.SeverityCritical,
		Payload:       json.RawMessage(`{"tipo_alerta": "panico", "device_id": "d1"}`),
	}
	data, err := json.Marshal(&env)
	require.NoError(t, err)
	msg := &messaging.Message{Subject: messaging.SubjectEventsStandardized, Data: data}

	require.NoError(t, f.processor.HandleMessage(context.Background(), msg))
	require.NoError(t, f.processor.HandleMessage(context.Background(), msg))

	alerts, err := f.repo.ListAlerts(context.Background(), repository.ListAlertsRequest{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "redelivery must not produce a second alert")
	assert.Len(t, f.bus.Published(messaging.SubjectAlertsCorrelated), 1)
	assert.Len(t, f.entity.batches(models.EntityPoliciaNacional), 1)
}

// panic-button + speed-sensor + plate-read in one zone within the window
// surfaces the composite coordinated-incident signal.
func TestProcessorCompositePattern(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deliver(t, f, models.EventPanicButton, models.SeverityCritical, "Zona 10",
		`{"tipo_alerta": "panico", "device_id": "d1"}`)
	deliver(t, f, models.EventSpeedSensor, models.SeverityWarning, "Zona 10",
		`{"velocidad": 90, "sensor_id": "s1"}`)

	// Two signals are not enough.
	alerts, err := f.repo.ListAlerts(ctx, repository.ListAlertsRequest{})
	require.NoError(t, err)
	for _, a := range alerts {
		assert.NotEqual(t, detect.CategoriaIncidenteCoordinado, a.Type)
	}

	deliver(t, f, models.EventPlateRead, models.SeverityInfo, "Zona 10",
		`{"placa": "P-9", "velocidad": 95}`)

	alerts, err = f.repo.ListAlerts(ctx, repository.ListAlertsRequest{})
	require.NoError(t, err)

	found := false
	for _, a := range alerts {
		if a.Type == detect.CategoriaIncidenteCoordinado {
			found = true
			assert.Equal(t, float64(100), a.Score)
			assert.Equal(t, "Zona 10", a.Zone)
		}
	}
	assert.True(t, found, "composite signal should be surfaced on the third event")

	// The composite routes to national police.
	assert.NotEmpty(t, f.entity.batches(models.EntityPoliciaNacional))
}

func TestProcessorCompositeScopedToZone(t *testing.T) {
	f := newFixture(t)

	deliver(t, f, models.EventPanicButton, models.SeverityCritical, "Zona 10",
		`{"tipo_alerta": "panico", "device_id": "d1"}`)
	deliver(t, f, models.EventSpeedSensor, models.SeverityWarning, "Zona 10",
		`{"velocidad": 90, "sensor_id": "s1"}`)
	// Third signal lands in a different zone: no composite anywhere.
	deliver(t, f, models.EventPlateRead, models.SeverityInfo, "Zona 4",
		`{"placa": "P-9", "velocidad": 95}`)

	alerts, err := f.repo.ListAlerts(context.Background(), repository.ListAlertsRequest{})
	require.NoError(t, err)
	for _, a := range alerts {
		assert.NotEqual(t, detect.CategoriaIncidenteCoordinado, a.Type)
	}
}

func TestProcessorUndecodableMessageIsAcked(t *testing.T) {
	f := newFixture(t)

	err := f.processor.HandleMessage(context.Background(), &messaging.Message{
		Subject: messaging.SubjectEventsStandardized,
		Data:    []byte(`{"event_type":`),
	})
	assert.NoError(t, err, "undecodable messages are dropped, not redelivered")
}

// Wiring through the in-process bus: a message published on the
// standardized subject flows through the queue-group subscription.
func TestProcessorViaQueueSubscription(t *testing.T) {
	f := newFixture(t)

	_, err := f.bus.QueueSubscribe(
		messaging.SubjectEventsStandardized,
		messaging.QueueDetectWorkers,
		f.processor.HandleMessage,
	)
	require.NoError(t, err)

	ts := time.Now().UTC()
	env := models.EventEnvelope{
		EventType:     models.EventAcoustic,
		EventID:       uuid.New().String(),
		CorrelationID: uuid.New().String(),
		Timestamp:     &ts,
		Geo:           &models.GeoLocation{Zone: "Zona 1"},
		Severity:      models.SeverityWarning,
		Payload:       json.RawMessage(`{"tipo_sonido": "disparo", "decibeles": 100, "probabilidad_critica": 0.9}`),
	}
	data, err := json.Marshal(&env)
	require.NoError(t, err)
	require.NoError(t, f.bus.Publish(context.Background(), messaging.SubjectEventsStandardized, data))

	alerts, err := f.repo.ListAlerts(context.Background(), repository.ListAlertsRequest{Zone: "Zona 1"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, detect.CategoriaDisparo, alerts[0].Type)
}
