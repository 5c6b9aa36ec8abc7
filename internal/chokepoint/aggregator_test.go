// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashdesaidev/trafficInsight/internal/geo"
)

func TestAggregateComputesCentroidAndMeanSeverity(t *testing.T) {
	cluster := Cluster{
		Members: []SamplePoint{
			{Lat: 12.90, Lon: 77.60, Severity: 0.5, Weight: 1},
			{Lat: 12.91, Lon: 77.61, Severity: 0.9, Weight: 1},
		},
	}

	out := Aggregate(context.Background(), []Cluster{cluster}, nil, 100, nil, false)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, "cp_0", c.ID)
	assert.InDelta(t, 12.905, c.CenterLat, 1e-9)
	assert.InDelta(t, 77.605, c.CenterLon, 1e-9)
	assert.InDelta(t, 0.7, c.MeanSeverity, 1e-9)
	// p90 index is floor(0.9*(n-1)): for n=2 that is index 0, i.e. the
	// smaller value — the original service's own documented small-sample
	// behavior (spec.md §8 notes peak >= mean only holds "within ±ε
	// tolerance for small samples").
	assert.InDelta(t, 0.5, c.PeakSeverity, 1e-9)
	wantScore := 100 * (0.6*0.7 + 0.3*0.5)
	assert.InDelta(t, wantScore, c.Score, 1e-9)
	assert.Nil(t, c.RoadName)
}

func TestAggregatePeakSeverityAtLeastMeanForLargerSamples(t *testing.T) {
	members := make([]SamplePoint, 10)
	for i := 0; i < 10; i++ {
		members[i] = SamplePoint{Lat: float64(i), Lon: float64(i), Severity: float64(i+1) / 10, Weight: 1}
	}
	cluster := Cluster{Members: members}

	out := Aggregate(context.Background(), []Cluster{cluster}, nil, 100, nil, false)
	require.Len(t, out, 1)
	assert.GreaterOrEqual(t, out[0].PeakSeverity, out[0].MeanSeverity)
	assert.InDelta(t, 0.9, out[0].PeakSeverity, 1e-9)
}

func TestAggregateSortsDescendingByScore(t *testing.T) {
	low := Cluster{Members: []SamplePoint{{Lat: 1, Lon: 1, Severity: 0.2, Weight: 1}}}
	high := Cluster{Members: []SamplePoint{{Lat: 2, Lon: 2, Severity: 0.9, Weight: 1}}}

	out := Aggregate(context.Background(), []Cluster{low, high}, nil, 100, nil, false)
	require.Len(t, out, 2)
	assert.Equal(t, "cp_0", out[0].ID)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestAggregateDropsZeroWeightCluster(t *testing.T) {
	cluster := Cluster{Members: []SamplePoint{{Lat: 1, Lon: 1, Severity: 0.5, Weight: 0}}}
	out := Aggregate(context.Background(), []Cluster{cluster}, nil, 100, nil, false)
	assert.Empty(t, out)
}

func TestAggregateIncidentBonusAndClosure(t *testing.T) {
	cluster := Cluster{Members: []SamplePoint{{Lat: 12.90, Lon: 77.60, Severity: 0.5, Weight: 1}}}
	incidents := []Incident{
		{ID: "i1", RoadClosed: true, HasGeometry: true, Point: geo.LatLon{Lat: 12.90, Lon: 77.60}},
	}

	out := Aggregate(context.Background(), []Cluster{cluster}, incidents, 100, nil, false)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].IncidentCount)
	assert.True(t, out[0].Closure)
	wantScore := 100 * (0.6*0.5 + 0.3*0.5 + 0.1*0.1)
	assert.InDelta(t, wantScore, out[0].Score, 1e-9)
}

type fakeGeocoder struct {
	name string
	err  error
}

func (f fakeGeocoder) Name(context.Context, float64, float64) (string, error) { return f.name, f.err }

func TestAggregateIncludesGeocodeWhenRequested(t *testing.T) {
	cluster := Cluster{Members: []SamplePoint{{Lat: 1, Lon: 1, Severity: 0.5, Weight: 1}}}
	out := Aggregate(context.Background(), []Cluster{cluster}, nil, 100, fakeGeocoder{name: "MG Road"}, true)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].RoadName)
	assert.Equal(t, "MG Road", *out[0].RoadName)
}

func TestAggregateGeocodeFailureLeavesRoadNameNil(t *testing.T) {
	cluster := Cluster{Members: []SamplePoint{{Lat: 1, Lon: 1, Severity: 0.5, Weight: 1}}}
	out := Aggregate(context.Background(), []Cluster{cluster}, nil, 100, fakeGeocoder{err: assert.AnError}, true)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].RoadName)
}
