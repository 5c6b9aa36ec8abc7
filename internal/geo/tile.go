// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileIndex is a Web-Mercator slippy-tile address, z in [0,22].
type TileIndex struct {
	Z int
	X int
	Y int
}

// TilesForBbox returns the inclusive rectangle of tiles covering bbox at
// zoom z, per the Web-Mercator slippy-tile mapping. Y grows southward, so
// the bbox's north edge (MaxLat) yields the smaller tile Y. Tile addressing
// itself is delegated to maptile.At, the same helper the rest of the
// retrieval pack uses to go from a point to its covering tile.
func TilesForBbox(bbox BoundingBox, z int) []TileIndex {
	n := int(math.Pow(2, float64(z)))
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	zoom := maptile.Zoom(z)
	nw := maptile.At(orb.Point{bbox.MinLon, bbox.MaxLat}, zoom)
	se := maptile.At(orb.Point{bbox.MaxLon, bbox.MinLat}, zoom)

	minX := clamp(int(nw.X), 0, n-1)
	maxX := clamp(int(se.X), 0, n-1)
	minY := clamp(int(nw.Y), 0, n-1)
	maxY := clamp(int(se.Y), 0, n-1)

	tiles := make([]TileIndex, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, TileIndex{Z: z, X: x, Y: y})
		}
	}
	return tiles
}

// TileCoverage computes the covering tile set for bbox starting at zoom z:
// if the tile count at z exceeds maxTiles, zoom is decremented by exactly
// one step and the coverage recomputed once, floored at minZoom. This
// mirrors the original service's single z-1 retry rather than a loop down
// to minZoom — a second cap breach at the reduced zoom is returned as-is.
func TileCoverage(bbox BoundingBox, z, minZoom, maxTiles int) ([]TileIndex, int) {
	zoom := z
	tiles := TilesForBbox(bbox, zoom)
	if len(tiles) > maxTiles && zoom > minZoom {
		zoom--
		tiles = TilesForBbox(bbox, zoom)
	}
	return tiles, zoom
}

// TileUpperLeft returns the geographic coordinate of tile (z,x,y)'s
// upper-left (northwest) corner, i.e. its local (0,0).
func TileUpperLeft(z, x, y int) LatLon {
	return TileToLonLat(z, x, y, 0, 0, 1)
}

// TileToLonLat converts a tile-local point (tx, ty) within tile (z, x, y) of
// the given extent to a geographic coordinate, per the standard inverse
// Web-Mercator slippy-tile projection.
func TileToLonLat(z, x, y int, tx, ty float64, extent int) LatLon {
	n := math.Pow(2, float64(z))
	u := (float64(x) + tx/float64(extent)) / n
	v := (float64(y) + ty/float64(extent)) / n

	lon := u*360.0 - 180.0
	lat := math.Atan(math.Sinh(math.Pi*(1-2*v))) * 180.0 / math.Pi
	return LatLon{Lat: lat, Lon: lon}
}
