package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/detect"
)

func alertRecord(typ, zone string, score float64) *models.AlertRecord {
	now := time.Now().UTC()
	return &models.AlertRecord{
		AlertID:       uuid.New().String(),
		CorrelationID: uuid.New().String(),
		Type:          typ,
		Score:         score,
		Zone:          zone,
		WindowStart:   now.Add(-5 * time.Minute),
		WindowEnd:     now,
		Evidence: models.Evidence{
			SourceEventID: uuid.New().String(),
			EventType:     models.EventPlateRead,
			Level:         models.LevelCritico,
			Timestamp:     now,
		},
		CreatedAt: now,
	}
}

func TestMemoryRepositorySaveAndList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveAlert(ctx, alertRecord(detect.CategoriaVelocidadPeligrosa, "Zona 10", 100)))
	require.NoError(t, repo.SaveAlert(ctx, alertRecord(detect.CategoriaRegistroVehicular, "Zona 4", 25)))

	all, err := repo.ListAlerts(ctx, ListAlertsRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, detect.CategoriaRegistroVehicular, all[0].Type)

	zoned, err := repo.ListAlerts(ctx, ListAlertsRequest{Zone: "Zona 10"})
	require.NoError(t, err)
	require.Len(t, zoned, 1)
	assert.Equal(t, detect.CategoriaVelocidadPeligrosa, zoned[0].Type)
}

func TestMemoryRepositoryDuplicateEvent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	env := &models.EventEnvelope{
		EventID:   uuid.New().String(),
		EventType: models.EventPanicButton,
		Severity:  models.SeverityCritical,
		Geo:       &models.GeoLocation{Zone: "Zona 10"},
	}

	inserted, err := repo.SaveEvent(ctx, env)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Redelivery of the same event id is a no-op.
	inserted, err = repo.SaveEvent(ctx, env)
	require.NoError(t, err)
	assert.False(t, inserted)

	events, err := repo.ListRecentEvents(ctx, 10, "")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryRepositoryStats(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveAlert(ctx, alertRecord(detect.CategoriaVelocidadPeligrosa, "Zona 10", 100)))
	require.NoError(t, repo.SaveAlert(ctx, alertRecord(detect.CategoriaVelocidadPeligrosa, "Zona 10", 100)))
	require.NoError(t, repo.SaveAlert(ctx, alertRecord(detect.CategoriaRegistroVehicular, "Zona 4", 25)))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.Last24h)
	assert.InDelta(t, 75.0, stats.AverageScore, 0.001)

	require.NotEmpty(t, stats.ByType)
	assert.Equal(t, detect.CategoriaVelocidadPeligrosa, stats.ByType[0].Type)
	assert.Equal(t, int64(2), stats.ByType[0].Count)

	require.NotEmpty(t, stats.ByZone)
	assert.Equal(t, "Zona 10", stats.ByZone[0].Zone)
}
