// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"math"
	"sync"

	"github.com/akashdesaidev/trafficInsight/internal/concurrency"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

// gridProbeTargetPoints is the target point count N for the severity
// extractor's terminal fallback; GridProbe rounds it up to a ⌈√N⌉×⌈√N⌉
// lattice, i.e. 9×9 = 81 cells for N = 80.
const gridProbeTargetPoints = 80

// defaultFlowConfidence is substituted when the upstream response omits a
// confidence figure, matching the original service's fallback.
const defaultFlowConfidence = 0.8

// FlowSegmentClient is the subset of upstream.Client the grid probe
// depends on.
type FlowSegmentClient interface {
	FetchFlowSegment(ctx context.Context, lat, lon float64) (*upstream.FlowSegmentData, error)
}

// GridProbe is the terminal severity fallback: when tile-derived samples
// are exhausted even after threshold relaxation and zoom escalation, it
// lays a ⌈√N⌉×⌈√N⌉ lat/lon lattice over bbox and queries the point-query
// flow-segment endpoint for each cell concurrently.
func GridProbe(ctx context.Context, client FlowSegmentClient, bbox geo.BoundingBox, concurrencyLimit int) ([]SamplePoint, error) {
	side := int(math.Ceil(math.Sqrt(float64(gridProbeTargetPoints))))
	if side < 4 {
		side = 4
	}

	type cell struct{ lat, lon float64 }
	cells := make([]cell, 0, side*side)
	for i := 0; i < side; i++ {
		lat := bbox.MinLat + bbox.Height()*float64(i)/float64(side-1)
		for j := 0; j < side; j++ {
			lon := bbox.MinLon + bbox.Width()*float64(j)/float64(side-1)
			cells = append(cells, cell{lat: lat, lon: lon})
		}
	}

	var mu sync.Mutex
	samples := make([]SamplePoint, 0, len(cells))

	err := concurrency.Each(ctx, cells, concurrencyLimit, func(ctx context.Context, c cell) error {
		data, err := client.FetchFlowSegment(ctx, c.lat, c.lon)
		if err != nil || data == nil || data.FreeFlowSpeed <= 0 {
			return nil
		}
		ratio := clamp(data.CurrentSpeed/data.FreeFlowSpeed, 0, 1)
		severity := 1 - ratio
		if severity <= 0 {
			return nil
		}
		confidence := data.Confidence
		if confidence <= 0 {
			confidence = defaultFlowConfidence
		}

		mu.Lock()
		samples = append(samples, SamplePoint{
			Lat:      c.lat,
			Lon:      c.lon,
			Severity: severity,
			Weight:   severity * confidence,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}
