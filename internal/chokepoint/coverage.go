// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import "github.com/akashdesaidev/trafficInsight/internal/geo"

// TileCoverage maps a bounding box and requested zoom to the inclusive set
// of XYZ tiles covering it. If the count exceeds maxTiles, zoom is reduced
// by exactly one step (never below minZoom) and the coverage recomputed
// once; the result at that zoom is returned even if still over maxTiles.
func TileCoverage(bbox geo.BoundingBox, z, minZoom, maxTiles int) ([]geo.TileIndex, int) {
	return geo.TileCoverage(bbox, z, minZoom, maxTiles)
}
