package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreForLevel(t *testing.T) {
	tests := []struct {
		level string
		score float64
	}{
		{LevelCritico, 100},
		{LevelAlto, 75},
		{LevelMedio, 50},
		{LevelInfo, 25},
		{"DESCONOCIDO", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.score, ScoreForLevel(tt.level))
		})
	}
}

func TestKnownEventType(t *testing.T) {
	for _, et := range EventTypes {
		assert.True(t, KnownEventType(et), et)
	}
	assert.False(t, KnownEventType("sensor.thermal"))
	assert.False(t, KnownEventType(""))
}

func TestEnvelope_Zone(t *testing.T) {
	var e EventEnvelope
	assert.Equal(t, "", e.Zone())

	e.Geo = &GeoLocation{Zone: "Zona 10"}
	assert.Equal(t, "Zona 10", e.Zone())
}
