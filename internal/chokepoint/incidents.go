// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"sync"

	"github.com/akashdesaidev/trafficInsight/internal/concurrency"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/metrics"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

// IncidentClient is the subset of upstream.Client the incident fetcher
// depends on, so it can be exercised against a fake in tests.
type IncidentClient interface {
	FetchIncidents(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]upstream.RawIncident, error)
}

// FetchIncidents retrieves incidents for bbox, splitting it into sub-bboxes
// under the area guard and fetching them concurrently, then deduplicating
// by incident id. Incidents lacking an id pass through unconditionally.
// Per-bbox transport failures are tolerated: that sub-bbox simply
// contributes nothing.
func FetchIncidents(ctx context.Context, client IncidentClient, bbox geo.BoundingBox, splitKm2 float64, concurrencyLimit int) ([]Incident, error) {
	subBoxes := geo.SplitBbox(bbox, splitKm2)
	metrics.IncidentFetchSplits.Observe(float64(len(subBoxes)))

	var mu sync.Mutex
	seen := make(map[string]bool)
	merged := make([]Incident, 0)

	err := concurrency.Each(ctx, subBoxes, concurrencyLimit, func(ctx context.Context, b geo.BoundingBox) error {
		raw, err := client.FetchIncidents(ctx, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
		if err != nil {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		for _, r := range raw {
			inc := normalizeIncident(r)
			if inc.ID != "" {
				if seen[inc.ID] {
					continue
				}
				seen[inc.ID] = true
			}
			merged = append(merged, inc)
		}
		return nil
	})

	return merged, err
}

// normalizeIncident converts an upstream feature to the pipeline's
// Incident shape, reading only the geometry's first coordinate pair.
func normalizeIncident(r upstream.RawIncident) Incident {
	point, ok := firstCoordinate(r.Geometry.Coordinates)
	return Incident{
		ID:          r.Properties.ID,
		RoadClosed:  r.Properties.RoadClosed,
		Point:       point,
		HasGeometry: ok,
	}
}

// firstCoordinate extracts the first [lon, lat] pair out of a GeoJSON-ish
// coordinates value, which may be a bare Point pair or a LineString's
// array of pairs.
func firstCoordinate(coords interface{}) (geo.LatLon, bool) {
	switch c := coords.(type) {
	case []interface{}:
		if len(c) == 0 {
			return geo.LatLon{}, false
		}
		if pair, ok := asLonLatPair(c); ok {
			return pair, true
		}
		if nested, ok := c[0].([]interface{}); ok {
			return asLonLatPair(nested)
		}
	}
	return geo.LatLon{}, false
}

func asLonLatPair(c []interface{}) (geo.LatLon, bool) {
	if len(c) < 2 {
		return geo.LatLon{}, false
	}
	lon, ok1 := toFloatAny(c[0])
	lat, ok2 := toFloatAny(c[1])
	if !ok1 || !ok2 {
		return geo.LatLon{}, false
	}
	return geo.LatLon{Lat: lat, Lon: lon}, true
}

func toFloatAny(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
