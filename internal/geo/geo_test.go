// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineSymmetricAndZero(t *testing.T) {
	a := LatLon{Lat: 12.9037, Lon: 77.6234}
	b := LatLon{Lat: 12.9247, Lon: 77.6625}

	assert.InDelta(t, 0.0, Haversine(a, a), 1e-9)
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
	assert.Greater(t, Haversine(a, b), 0.0)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Bangalore deployment extent's diagonal, roughly 4.8km.
	a := LatLon{Lat: 12.9037, Lon: 77.6234}
	b := LatLon{Lat: 12.9247, Lon: 77.6625}
	distKm := Haversine(a, b) / 1000
	assert.InDelta(t, 4.8, distKm, 0.5)
}

func TestAreaKm2MatchesExpectedMagnitude(t *testing.T) {
	bbox := BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	area := AreaKm2(bbox)
	// ~4.2km x ~2.3km extent.
	assert.InDelta(t, 9.6, area, 3.0)
}

func TestSplitBboxBelowThresholdReturnsSingle(t *testing.T) {
	bbox := BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	parts := SplitBbox(bbox, 8000)
	require.Len(t, parts, 1)
	assert.Equal(t, bbox, parts[0])
}

func TestSplitBboxAboveThresholdSplitsAlongLongerAxis(t *testing.T) {
	// A wide bbox whose area exceeds 8000 km^2: ~400km x ~50km.
	bbox := BoundingBox{MinLon: 77.0, MinLat: 12.5, MaxLon: 81.0, MaxLat: 13.0}
	require.Greater(t, AreaKm2(bbox), 8000.0)

	parts := SplitBbox(bbox, 8000)
	require.GreaterOrEqual(t, len(parts), 2)

	for _, p := range parts {
		assert.LessOrEqual(t, AreaKm2(p), 8000.0+1e-6)
	}

	// Longer axis (longitude) should have been split: the two adjacent
	// halves should share a longitude boundary at the midpoint.
	midLon := (bbox.MinLon + bbox.MaxLon) / 2
	foundBoundary := false
	for _, p := range parts {
		if math.Abs(p.MaxLon-midLon) < 1e-9 || math.Abs(p.MinLon-midLon) < 1e-9 {
			foundBoundary = true
		}
	}
	assert.True(t, foundBoundary, "expected a split boundary at the longer axis midpoint")
}

func TestBoundingBoxRound(t *testing.T) {
	bbox := BoundingBox{MinLon: 77.623412345, MinLat: 12.903712345, MaxLon: 77.662512345, MaxLat: 12.924712345}
	rounded := bbox.Round(5)
	assert.InDelta(t, 77.62341, rounded.MinLon, 1e-9)
	assert.InDelta(t, 12.90371, rounded.MinLat, 1e-9)
}
