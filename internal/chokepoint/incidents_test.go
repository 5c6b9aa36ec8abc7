// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

type fakeIncidentClient struct {
	calls int
}

func (f *fakeIncidentClient) FetchIncidents(_ context.Context, minLon, minLat, maxLon, maxLat float64) ([]upstream.RawIncident, error) {
	f.calls++
	return []upstream.RawIncident{
		{
			Properties: upstream.IncidentProperties{ID: "shared"},
			Geometry: upstream.IncidentGeometry{
				Type:        "Point",
				Coordinates: []interface{}{(minLon + maxLon) / 2, (minLat + maxLat) / 2},
			},
		},
	}, nil
}

func TestFetchIncidentsSplitsLargeBboxAndDedupes(t *testing.T) {
	// A bbox whose area is comfortably above 8000 km^2.
	bbox := geo.BoundingBox{MinLon: 70.0, MinLat: 8.0, MaxLon: 80.0, MaxLat: 18.0}
	client := &fakeIncidentClient{}

	incidents, err := FetchIncidents(context.Background(), client, bbox, 8000, 8)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, client.calls, 2)

	ids := map[string]int{}
	for _, inc := range incidents {
		ids[inc.ID]++
	}
	assert.Equal(t, 1, ids["shared"], "duplicate incident id must be merged once")
}

func TestFetchIncidentsSmallBboxSingleCall(t *testing.T) {
	bbox := geo.BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	client := &fakeIncidentClient{}

	incidents, err := FetchIncidents(context.Background(), client, bbox, 8000, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	require.Len(t, incidents, 1)
}

func TestFetchIncidentsToleratesPerBboxTransportError(t *testing.T) {
	bbox := geo.BoundingBox{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247}
	client := &erroringIncidentClient{}

	incidents, err := FetchIncidents(context.Background(), client, bbox, 8000, 8)
	require.NoError(t, err)
	assert.Empty(t, incidents)
}

type erroringIncidentClient struct{}

func (erroringIncidentClient) FetchIncidents(context.Context, float64, float64, float64, float64) ([]upstream.RawIncident, error) {
	return nil, assert.AnError
}
