// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import "github.com/akashdesaidev/trafficInsight/internal/geo"

// incidentWeightBoost is the fixed multiplicative factor applied to a
// sample's weight for every incident within range.
const incidentWeightBoost = 1.5

// ApplyIncidentBoost multiplies each sample's weight by incidentWeightBoost
// for every incident within incidentRadiusM of it. A sample near several
// incidents is boosted once per incident, multiplicatively.
func ApplyIncidentBoost(samples []SamplePoint, incidents []Incident, incidentRadiusM float64) []SamplePoint {
	boosted := make([]SamplePoint, len(samples))
	copy(boosted, samples)

	for i := range boosted {
		point := geo.LatLon{Lat: boosted[i].Lat, Lon: boosted[i].Lon}
		for _, inc := range incidents {
			if !inc.HasGeometry {
				continue
			}
			if geo.Haversine(point, inc.Point) <= incidentRadiusM {
				boosted[i].Weight *= incidentWeightBoost
			}
		}
	}

	return boosted
}
