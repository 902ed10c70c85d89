package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

var frozen = time.Date(2025, 11, 3, 15, 4, 5, 0, time.UTC)

func newTestEnricher() *Enricher {
	return New("", nil, WithClock(func() time.Time { return frozen }))
}

func TestEnrich_FillsAllDefaults(t *testing.T) {
	e := newTestEnricher()
	env := &models.EventEnvelope{EventType: models.EventPanicButton}

	e.Enrich(env)

	require.NotNil(t, env.Timestamp)
	assert.Equal(t, frozen, *env.Timestamp)
	require.NotNil(t, env.Geo)
	assert.Equal(t, "Zona 10", env.Geo.Zone)
	require.NotNil(t, env.Geo.Lat)
	require.NotNil(t, env.Geo.Lon)
	assert.InDelta(t, 14.6091, *env.Geo.Lat, 0.0001)
	assert.InDelta(t, -90.5252, *env.Geo.Lon, 0.0001)
}

func TestEnrich_NeverOverwrites(t *testing.T) {
	e := newTestEnricher()
	ts := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	lat, lon := 14.55, -90.60
	env := &models.EventEnvelope{
		Timestamp: &ts,
		Geo:       &models.GeoLocation{Zone: "Zona 4", Lat: &lat, Lon: &lon},
	}

	e.Enrich(env)

	assert.Equal(t, ts, *env.Timestamp)
	assert.Equal(t, "Zona 4", env.Geo.Zone)
	assert.Equal(t, 14.55, *env.Geo.Lat)
	assert.Equal(t, -90.60, *env.Geo.Lon)
}

func TestEnrich_PartialGeo(t *testing.T) {
	e := New("Zona 10", map[string]models.Coordinates{
		"Zona 10": {Lat: 14.6091, Lon: -90.5252},
		"Zona 1":  {Lat: 14.6407, Lon: -90.5133},
	})
	env := &models.EventEnvelope{Geo: &models.GeoLocation{Zone: "Zona 1"}}

	e.Enrich(env)

	// Present zone kept; coordinates filled from that zone's entry.
	assert.Equal(t, "Zona 1", env.Geo.Zone)
	assert.InDelta(t, 14.6407, *env.Geo.Lat, 0.0001)
	assert.InDelta(t, -90.5133, *env.Geo.Lon, 0.0001)
}

func TestEnrich_UnknownZoneFallsBackToDefaultCoords(t *testing.T) {
	e := newTestEnricher()
	env := &models.EventEnvelope{Geo: &models.GeoLocation{Zone: "Zona 99"}}

	e.Enrich(env)

	assert.Equal(t, "Zona 99", env.Geo.Zone)
	assert.InDelta(t, 14.6091, *env.Geo.Lat, 0.0001)
}

func TestEnrich_Idempotent(t *testing.T) {
	e := newTestEnricher()
	env := &models.EventEnvelope{}

	e.Enrich(env)
	first := *env
	firstTS := *env.Timestamp
	firstLat := *env.Geo.Lat

	e.Enrich(env)

	assert.Equal(t, first.Geo.Zone, env.Geo.Zone)
	assert.Equal(t, firstTS, *env.Timestamp)
	assert.Equal(t, firstLat, *env.Geo.Lat)
}

func TestEnrich_Nil(t *testing.T) {
	assert.Nil(t, newTestEnricher().Enrich(nil))
}
