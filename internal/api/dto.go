// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"math"

	"github.com/akashdesaidev/trafficInsight/internal/chokepoint"
)

// centerDTO is a cluster's weighted centroid.
type centerDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// clusterDTO is one chokepoint cluster as documented in the result
// envelope: score rounded to 1 decimal, severities to 3, support to 2.
type clusterDTO struct {
	ID            string    `json:"id"`
	Center        centerDTO `json:"center"`
	Score         float64   `json:"score"`
	SeverityMean  float64   `json:"severity_mean"`
	SeverityPeak  float64   `json:"severity_peak"`
	IncidentCount int       `json:"incident_count"`
	Closure       bool      `json:"closure"`
	Support       float64   `json:"support"`
	Count         int       `json:"count"`
	RoadName      *string   `json:"road_name"`
}

// resultDTO is the top-level result envelope.
type resultDTO struct {
	Clusters []clusterDTO `json:"clusters"`
}

func round(v float64, decimals int) float64 {
	f := math.Pow(10, float64(decimals))
	return math.Round(v*f) / f
}

// toResultDTO converts a pipeline Result to the wire envelope, applying the
// documented field rounding.
func toResultDTO(result chokepoint.Result) resultDTO {
	out := resultDTO{Clusters: make([]clusterDTO, 0, len(result.Clusters))}
	for _, c := range result.Clusters {
		out.Clusters = append(out.Clusters, clusterDTO{
			ID:            c.ID,
			Center:        centerDTO{Lat: c.CenterLat, Lon: c.CenterLon},
			Score:         round(c.Score, 1),
			SeverityMean:  round(c.MeanSeverity, 3),
			SeverityPeak:  round(c.PeakSeverity, 3),
			IncidentCount: c.IncidentCount,
			Closure:       c.Closure,
			Support:       round(c.Support, 2),
			Count:         c.Count,
			RoadName:      c.RoadName,
		})
	}
	return out
}
