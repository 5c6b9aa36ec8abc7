// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
	"github.com/akashdesaidev/trafficInsight/internal/chokepoint"
	"github.com/akashdesaidev/trafficInsight/internal/config"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

type fakeIncidentClient struct{}

func (fakeIncidentClient) FetchIncidents(context.Context, float64, float64, float64, float64) ([]upstream.RawIncident, error) {
	return nil, nil
}

type fakeTileSource struct {
	features []chokepoint.TileFeature
	style    string
}

func (f *fakeTileSource) FetchTilesMulti(context.Context, []geo.TileIndex, int, int) ([]chokepoint.TileFeature, string, error) {
	return f.features, f.style, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Bbox: config.BboxConfig{MinLon: 77.6234, MinLat: 12.9037, MaxLon: 77.6625, MaxLat: 12.9247},
		Pipeline: config.PipelineConfig{
			Zoom: 13, MinZoom: 12, MaxTilesLive: 16, MaxTilesProbe: 32,
			EpsM: 150, MinSamples: 4, JFMin: 4.0, IncidentRadiusM: 100,
			IncidentSplitKm2: 8000, TileConcurrency: 8, IncidentConcurrency: 8, ProbeConcurrency: 8,
			ResultCacheTTL: time.Minute,
		},
	}
}

func TestHealthzReturnsOK(t *testing.T) {
	h := &Handler{Config: testConfig()}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	h.Healthz(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChokepointsReturnsEmptyClustersWhenNoSamples(t *testing.T) {
	tiles := &fakeTileSource{}
	pipeline := &chokepoint.Pipeline{Fetcher: tiles, IncidentClient: fakeIncidentClient{}}
	cached := chokepoint.NewCachedPipeline(pipeline, cache.NewTTL(time.Minute), time.Minute)
	h := &Handler{Pipeline: cached, Fetcher: tiles, Config: testConfig()}

	req := httptest.NewRequest(http.MethodGet, "/traffic/chokepoints", nil)
	w := httptest.NewRecorder()

	h.Chokepoints(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body resultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Clusters)
}

func TestChokepointsReturns500WhenIncidentClientMissing(t *testing.T) {
	tiles := &fakeTileSource{}
	pipeline := &chokepoint.Pipeline{Fetcher: tiles}
	cached := chokepoint.NewCachedPipeline(pipeline, cache.NewTTL(time.Minute), time.Minute)
	h := &Handler{Pipeline: cached, Fetcher: tiles, Config: testConfig()}

	req := httptest.NewRequest(http.MethodGet, "/traffic/chokepoints", nil)
	w := httptest.NewRecorder()

	h.Chokepoints(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVectorProbeHonorsInboundBboxAndReportsSamples(t *testing.T) {
	tiles := &fakeTileSource{
		features: []chokepoint.TileFeature{{Properties: map[string]interface{}{"jam_factor": 6.0}}},
		style:    "relative",
	}
	h := &Handler{Fetcher: tiles, Config: testConfig()}

	req := httptest.NewRequest(http.MethodGet, "/traffic/vector-probe?bbox=77.60,12.90,77.61,12.91&z=13", nil)
	w := httptest.NewRecorder()

	h.VectorProbe(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body vectorProbeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "relative", body.Style)
	assert.Equal(t, 1, body.FeatureCount)
	require.Len(t, body.Samples, 1)
}

func TestVectorProbeRejectsMalformedBbox(t *testing.T) {
	h := &Handler{Fetcher: &fakeTileSource{}, Config: testConfig()}

	req := httptest.NewRequest(http.MethodGet, "/traffic/vector-probe?bbox=not-a-bbox", nil)
	w := httptest.NewRecorder()

	h.VectorProbe(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
