// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashdesaidev/trafficInsight/internal/config"
)

func testCreds() config.TomTomConfig {
	return config.TomTomConfig{MapsAPIKey: "test-key"}
}

func TestFetchTileReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/traffic/map/4/tile/flow/relative/13/7439/4167.pbf")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte("fake-pbf-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	body, err := c.FetchTile(context.Background(), "relative", 13, 7439, 4167)
	require.NoError(t, err)
	assert.Equal(t, "fake-pbf-bytes", string(body))
}

func TestFetchTileNon2xxReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	_, err := c.FetchTile(context.Background(), "relative", 13, 1, 1)
	assert.Error(t, err)
}

func TestFetchFlowSegmentDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12.900000,77.600000", r.URL.Query().Get("point"))
		w.Write([]byte(`{"flowSegmentData":{"currentSpeed":20,"freeFlowSpeed":50,"confidence":0.9}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	seg, err := c.FetchFlowSegment(context.Background(), 12.9, 77.6)
	require.NoError(t, err)
	assert.Equal(t, 20.0, seg.CurrentSpeed)
	assert.Equal(t, 50.0, seg.FreeFlowSpeed)
	assert.Equal(t, 0.9, seg.Confidence)
}

func TestFetchIncidentsAcceptsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type":"Feature","properties":{"id":"inc1","roadClosed":true}}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	incidents, err := c.FetchIncidents(context.Background(), 77.6, 12.9, 77.7, 13.0)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "inc1", incidents[0].Properties.ID)
	assert.True(t, incidents[0].Properties.RoadClosed)
}

func TestFetchIncidentsAcceptsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"incidents":[{"type":"Feature","properties":{"id":"inc2"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	incidents, err := c.FetchIncidents(context.Background(), 77.6, 12.9, 77.7, 13.0)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "inc2", incidents[0].Properties.ID)
}

func TestReverseGeocodePrefersStreetName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"addresses":[{"address":{"streetName":"MG Road","freeformAddress":"MG Road, Bangalore"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	name, err := c.ReverseGeocode(context.Background(), 12.9, 77.6)
	require.NoError(t, err)
	assert.Equal(t, "MG Road", name)
}

func TestReverseGeocodeEmptyAddressesReturnsEmptyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"addresses":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testCreds(), time.Second)
	name, err := c.ReverseGeocode(context.Background(), 12.9, 77.6)
	require.NoError(t, err)
	assert.Empty(t, name)
}
