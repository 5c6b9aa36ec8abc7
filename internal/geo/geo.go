// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package geo provides the coordinate types and spherical-geometry math
// shared across the chokepoint pipeline: tile/bbox conversions, haversine
// distance, and bbox area/splitting for the incident fetcher.
package geo

import "math"

// earthRadiusM is the sphere radius used throughout the pipeline for
// haversine distance and eps-neighborhood radius conversion, matching the
// upstream provider's own great-circle assumption.
const earthRadiusM = 6371000.0

// LatLon is the one internal geographic coordinate value type. Upstream
// payloads use [lon, lat] ordering; callers convert to LatLon once at
// ingress and never pass raw coordinate pairs through the pipeline.
type LatLon struct {
	Lat float64
	Lon float64
}

// BoundingBox is a WGS84 axis-aligned rectangle, minimums first.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Width returns the bbox's longitude span in degrees.
func (b BoundingBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the bbox's latitude span in degrees.
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// Center returns the bbox's geometric midpoint.
func (b BoundingBox) Center() LatLon {
	return LatLon{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Round returns a copy of b with each bound rounded to the given number of
// decimal places. Used to canonicalize bbox values for result-cache keys.
func (b BoundingBox) Round(decimals int) BoundingBox {
	f := math.Pow(10, float64(decimals))
	round := func(v float64) float64 { return math.Round(v*f) / f }
	return BoundingBox{
		MinLon: round(b.MinLon),
		MinLat: round(b.MinLat),
		MaxLon: round(b.MaxLon),
		MaxLat: round(b.MaxLat),
	}
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// AreaKm2 estimates a bbox's area via two haversine edges (width at the
// bbox's vertical center, times height), sufficient for the incident
// fetcher's split-threshold guard.
func AreaKm2(b BoundingBox) float64 {
	midLat := (b.MinLat + b.MaxLat) / 2
	widthM := Haversine(
		LatLon{Lat: midLat, Lon: b.MinLon},
		LatLon{Lat: midLat, Lon: b.MaxLon},
	)
	heightM := Haversine(
		LatLon{Lat: b.MinLat, Lon: b.MinLon},
		LatLon{Lat: b.MaxLat, Lon: b.MinLon},
	)
	return (widthM / 1000) * (heightM / 1000)
}

// SplitBbox recursively halves b along its longer axis until every
// resulting sub-bbox has an area at or below maxAreaKm2. The split
// boundary sits at the midpoint of the longer axis, inclusive on both
// sides, matching the incident fetcher's bbox-split contract.
func SplitBbox(b BoundingBox, maxAreaKm2 float64) []BoundingBox {
	if AreaKm2(b) <= maxAreaKm2 {
		return []BoundingBox{b}
	}

	var left, right BoundingBox
	if b.Width() >= b.Height() {
		midLon := (b.MinLon + b.MaxLon) / 2
		left = BoundingBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: midLon, MaxLat: b.MaxLat}
		right = BoundingBox{MinLon: midLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
	} else {
		midLat := (b.MinLat + b.MaxLat) / 2
		left = BoundingBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: midLat}
		right = BoundingBox{MinLon: b.MinLon, MinLat: midLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
	}

	out := make([]BoundingBox, 0, 4)
	out = append(out, SplitBbox(left, maxAreaKm2)...)
	out = append(out, SplitBbox(right, maxAreaKm2)...)
	return out
}
