// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"fmt"
	"time"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
)

// GeocodeClient is the subset of upstream.Client the aggregator needs for
// optional centroid reverse-geocoding.
type GeocodeClient interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Geocoder resolves a cluster centroid to a display name. Implementations
// must never fail the caller — a lookup error yields a null name.
type Geocoder interface {
	Name(ctx context.Context, lat, lon float64) (string, error)
}

// geocodeCacheTTL is the reverse-geocode result's own short-lived cache
// TTL, independent of the tile and result caches.
const geocodeCacheTTL = 5 * time.Minute

// CachedGeocoder wraps a GeocodeClient with a TTL cache keyed on
// 5-decimal-rounded coordinates, so repeated centroids near the same spot
// don't re-hit the upstream endpoint within the TTL window.
type CachedGeocoder struct {
	client GeocodeClient
	cache  cache.Cacher
}

// NewCachedGeocoder builds a Geocoder. cache may be any Cacher; a fresh
// in-memory TTL cache is the typical choice.
func NewCachedGeocoder(client GeocodeClient, c cache.Cacher) *CachedGeocoder {
	return &CachedGeocoder{client: client, cache: c}
}

// Name returns the cached or freshly-fetched street name for (lat, lon). A
// failed upstream call is returned as an error for the caller to swallow
// into a null road_name, per the aggregator's reverse-geocode contract.
func (g *CachedGeocoder) Name(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("geocode:%.5f,%.5f", lat, lon)
	if v, ok := g.cache.Get(key); ok {
		return v.(string), nil
	}

	name, err := g.client.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	g.cache.SetWithTTL(key, name, geocodeCacheTTL)
	return name, nil
}
