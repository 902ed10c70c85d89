// Package enrich fills missing envelope fields with zone defaults.
package enrich

import (
	"time"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// Canonical defaults when no configuration is provided.
const DefaultZone = "Zona 10"

var defaultCoords = map[string]models.Coordinates{
	DefaultZone: {Lat: 14.6091, Lon: -90.5252},
}

// Enricher applies zone defaults to envelopes. It only ever fills absent
// fields, so re-applying it to an already-enriched envelope is a no-op.
type Enricher struct {
	defaultZone string
	coords      map[string]models.Coordinates
	now         func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

// New creates an Enricher. zoneCoords maps zone name to its canonical
// coordinate; the default zone must have an entry, which New guarantees
// by falling back to the built-in table.
func New(defaultZone string, zoneCoords map[string]models.Coordinates, opts ...Option) *Enricher {
	if defaultZone == "" {
		defaultZone = DefaultZone
	}
	coords := make(map[string]models.Coordinates, len(zoneCoords)+1)
	for z, c := range zoneCoords {
		coords[z] = c
	}
	if _, ok := coords[defaultZone]; !ok {
		coords[defaultZone] = defaultCoords[DefaultZone]
	}

	e := &Enricher{
		defaultZone: defaultZone,
		coords:      coords,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fills the envelope's missing timestamp and geo fields in place
// and returns it. Present values are never overwritten.
func (e *Enricher) Enrich(env *models.EventEnvelope) *models.EventEnvelope {
	if env == nil {
		return nil
	}

	if env.Timestamp == nil {
		now := e.now().UTC()
		env.Timestamp = &now
	}

	if env.Geo == nil {
		env.Geo = &models.GeoLocation{}
	}
	if env.Geo.Zone == "" {
		env.Geo.Zone = e.defaultZone
	}

	canonical := e.canonicalCoords(env.Geo.Zone)
	if env.Geo.Lat == nil {
		lat := canonical.Lat
		env.Geo.Lat = &lat
	}
	if env.Geo.Lon == nil {
		lon := canonical.Lon
		env.Geo.Lon = &lon
	}

	return env
}

// canonicalCoords returns the coordinate for zone, falling back to the
// default zone's coordinate for zones without an entry.
func (e *Enricher) canonicalCoords(zone string) models.Coordinates {
	if c, ok := e.coords[zone]; ok {
		return c
	}
	return e.coords[e.defaultZone]
}
