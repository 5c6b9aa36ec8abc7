// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"strconv"
	"time"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
)

// DefaultEpsM and DefaultMinSamples are the tuning defaults for dense urban
// road density; callers may override both.
const (
	DefaultEpsM       = 150.0
	DefaultMinSamples = 4.0
)

// Cluster runs a weighted DBSCAN over samples using haversine-radius
// neighborhoods: a point is a core point when the sum of weights in its
// eps-neighborhood is at least minSamples. Noise-labeled samples are
// excluded from the returned clusters.
func Cluster(samples []SamplePoint, epsM, minSamples float64) []Cluster {
	n := len(samples)
	if n == 0 {
		return nil
	}

	radiusKm := epsM / 1000
	if radiusKm <= 0 {
		radiusKm = DefaultEpsM / 1000
	}

	grid := cache.NewSpatialHashGrid(radiusKm)
	for i, s := range samples {
		grid.Insert(strconv.Itoa(i), s.Lat, s.Lon, time.Time{}, i)
	}

	neighborsOf := func(i int) []int {
		entries := grid.QueryNearby(samples[i].Lat, samples[i].Lon, radiusKm)
		idx := make([]int, 0, len(entries))
		for _, e := range entries {
			idx = append(idx, e.Data.(int))
		}
		return idx
	}

	weightSum := func(idxs []int) float64 {
		sum := 0.0
		for _, j := range idxs {
			sum += samples[j].Weight
		}
		return sum
	}

	const unvisited = 0
	const noise = -1
	labels := make([]int, n)
	visited := make([]bool, n)
	clusterID := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neigh := neighborsOf(i)
		if weightSum(neigh) < minSamples {
			labels[i] = noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		seeds := append([]int{}, neigh...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if !visited[j] {
				visited[j] = true
				jNeigh := neighborsOf(j)
				if weightSum(jNeigh) >= minSamples {
					seeds = append(seeds, jNeigh...)
				}
			}
			if labels[j] == unvisited || labels[j] == noise {
				labels[j] = clusterID
			}
		}
	}

	byLabel := make(map[int][]SamplePoint, clusterID)
	for i, lbl := range labels {
		if lbl > 0 {
			byLabel[lbl] = append(byLabel[lbl], samples[i])
		}
	}

	clusters := make([]Cluster, 0, len(byLabel))
	for id := 1; id <= clusterID; id++ {
		if members, ok := byLabel[id]; ok {
			clusters = append(clusters, Cluster{Members: members})
		}
	}
	return clusters
}
