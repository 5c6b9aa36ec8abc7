// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"fmt"
	"sort"

	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/logging"
)

// incidentProximityFloorM is the minimum radius used for the aggregator's
// own incident-proximity count, independent of (and possibly larger than)
// the boost radius.
const incidentProximityFloorM = 150.0

// Aggregate computes each cluster's weighted centroid, severity summary,
// incident proximity, and composite score, then sorts descending by score
// and assigns stable synthetic ids in that order. Clusters whose total
// weight is non-positive are dropped. Reverse-geocode failures never fail
// a cluster — its road name is simply left nil.
func Aggregate(ctx context.Context, clusters []Cluster, incidents []Incident, incidentRadiusM float64, geocoder Geocoder, includeGeocode bool) []Cluster {
	countRadius := incidentRadiusM
	if countRadius < incidentProximityFloorM {
		countRadius = incidentProximityFloorM
	}

	out := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		agg, ok := aggregateOne(c, incidents, countRadius)
		if !ok {
			continue
		}
		out = append(out, agg)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	for i := range out {
		out[i].ID = fmt.Sprintf("cp_%d", i)
		if !includeGeocode || geocoder == nil {
			continue
		}
		name, err := geocoder.Name(ctx, out[i].CenterLat, out[i].CenterLon)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("reverse geocode failed, leaving road_name null")
			continue
		}
		if name != "" {
			n := name
			out[i].RoadName = &n
		}
	}

	return out
}

func aggregateOne(c Cluster, incidents []Incident, countRadius float64) (Cluster, bool) {
	totalW := 0.0
	for _, m := range c.Members {
		totalW += m.Weight
	}
	if totalW <= 0 {
		return Cluster{}, false
	}

	var latSum, lonSum, sevSum float64
	severities := make([]float64, len(c.Members))
	for i, m := range c.Members {
		latSum += m.Lat * m.Weight
		lonSum += m.Lon * m.Weight
		sevSum += m.Severity * m.Weight
		severities[i] = m.Severity
	}
	sort.Float64s(severities)

	c.CenterLat = latSum / totalW
	c.CenterLon = lonSum / totalW
	c.MeanSeverity = sevSum / totalW
	c.PeakSeverity = p90(severities)
	c.Support = totalW
	c.Count = len(c.Members)
	c.IncidentCount, c.Closure = incidentProximity(c.CenterLat, c.CenterLon, incidents, countRadius)

	bonus := 0.0
	if c.Closure {
		bonus = 0.1
	}
	if c.IncidentCount > 0 && bonus < 0.1 {
		bonus = 0.1
	}
	c.Score = 100 * (0.6*c.MeanSeverity + 0.3*c.PeakSeverity + 0.1*bonus)

	return c, true
}

// p90 returns the 90th-percentile value of a slice already sorted
// ascending, using the same order-statistic index the original service
// uses: floor(0.9*(n-1)), or the sole value when n==1.
func p90(sortedAsc []float64) float64 {
	n := len(sortedAsc)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return sortedAsc[0]
	default:
		idx := int(0.9 * float64(n-1))
		return sortedAsc[idx]
	}
}

func incidentProximity(lat, lon float64, incidents []Incident, radiusM float64) (count int, closure bool) {
	point := geo.LatLon{Lat: lat, Lon: lon}
	for _, inc := range incidents {
		if !inc.HasGeometry {
			continue
		}
		if geo.Haversine(point, inc.Point) <= radiusM {
			count++
			if inc.RoadClosed {
				closure = true
			}
		}
	}
	return count, closure
}
