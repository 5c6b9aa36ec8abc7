// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTomTomConfigRoleFallback(t *testing.T) {
	tt := TomTomConfig{MapsAPIKey: "general-key"}
	assert.Equal(t, "general-key", tt.TrafficKey())
	assert.Equal(t, "general-key", tt.SearchKey())
	assert.Equal(t, "general-key", tt.StatsKey())

	tt.TrafficAPIKey = "traffic-only-key"
	assert.Equal(t, "traffic-only-key", tt.TrafficKey())
	assert.Equal(t, "general-key", tt.SearchKey())
}

func TestTrimCredential(t *testing.T) {
	assert.Equal(t, "abc123", trimCredential("  abc123  "))
	assert.Equal(t, "abc123", trimCredential(`"abc123"`))
	assert.Equal(t, "abc123", trimCredential(`'abc123'`))
	assert.Equal(t, "abc123", trimCredential(` "abc123" `))
}

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, 13, cfg.Pipeline.Zoom)
	assert.Equal(t, 12, cfg.Pipeline.MinZoom)
	assert.Equal(t, 150.0, cfg.Pipeline.EpsM)
	assert.Equal(t, 4.0, cfg.Pipeline.MinSamples)
	assert.Equal(t, 4.0, cfg.Pipeline.JFMin)
	assert.Equal(t, 100.0, cfg.Pipeline.IncidentRadiusM)
	assert.False(t, cfg.Pipeline.IncludeGeocode)
	assert.Equal(t, 8000.0, cfg.Pipeline.IncidentSplitKm2)

	assert.InDelta(t, 77.6234, cfg.Bbox.MinLon, 1e-9)
	assert.InDelta(t, 12.9037, cfg.Bbox.MinLat, 1e-9)
	assert.InDelta(t, 77.6625, cfg.Bbox.MaxLon, 1e-9)
	assert.InDelta(t, 12.9247, cfg.Bbox.MaxLat, 1e-9)
}

func TestValidateRequiresCredential(t *testing.T) {
	cfg := defaultConfig()
	err := cfg.Validate()
	assert.Error(t, err)

	cfg.TomTom.MapsAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestEnvTransformFuncIgnoresUnknownKeys(t *testing.T) {
	assert.Equal(t, "", envTransformFunc("SOME_RANDOM_ENV_VAR"))
	assert.Equal(t, "tomtom.maps_api_key", envTransformFunc("TOMTOM_MAPS_API_KEY"))
}
