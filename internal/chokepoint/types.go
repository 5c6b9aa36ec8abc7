// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package chokepoint implements the live chokepoint detection pipeline:
// tile coverage, concurrent fetch with fallback, decoding, severity
// extraction, incident fusion, density clustering, and scored aggregation.
package chokepoint

import "github.com/akashdesaidev/trafficInsight/internal/geo"

// RawTile is one fetched vector-tile payload, still opaque bytes, tagged
// with the style and XYZ index it was fetched under.
type RawTile struct {
	Style string
	Z, X, Y int
	Data  []byte
}

// TileLayer is one decoded MVT layer: its declared extent and the features
// it carries, still in tile-local integer coordinates.
type TileLayer struct {
	Extent   int
	Features []TileFeature
}

// DecodedTile maps layer name to its decoded content for one tile.
type DecodedTile struct {
	Z, X, Y int
	Layers  map[string]TileLayer
}

// TileFeatureGeometry is the structural shape the decoder preserves:
// exactly one of Point, Line, or MultiLine is non-nil. Coordinates are
// tile-local integers in [0, extent], never projected by the decoder.
type TileFeatureGeometry struct {
	Point     *[2]float64
	Line      [][2]float64
	MultiLine [][][2]float64
}

// TileFeature is one feature lifted out of a decoded layer, carrying the
// tile it came from so a later stage can project its representative point.
type TileFeature struct {
	LayerName  string
	Properties map[string]interface{}
	Geometry   TileFeatureGeometry
	Extent     int
	Z, X, Y    int
}

// SamplePoint is a single severity observation at a geographic point,
// either lifted from tile geometry or synthesized by the grid probe.
type SamplePoint struct {
	Lat, Lon float64
	Severity float64
	Weight   float64
}

// Incident is a normalized entry from the incident details feed. ID may be
// empty when the upstream feature carries none; such incidents are never
// deduplicated against each other.
type Incident struct {
	ID          string
	RoadClosed  bool
	Point       geo.LatLon
	HasGeometry bool
}

// Cluster is one group of SamplePoints sharing a DBSCAN label, plus the
// derived quantities the Aggregator computes from them.
type Cluster struct {
	ID            string
	Members       []SamplePoint
	CenterLat     float64
	CenterLon     float64
	MeanSeverity  float64
	PeakSeverity  float64
	Support       float64
	Count         int
	IncidentCount int
	Closure       bool
	Score         float64
	RoadName      *string
}

// Result is the pipeline's final output: clusters sorted by score
// descending, plus which flow style ultimately won the fallback race (for
// observability and the style-fallback test scenario).
type Result struct {
	Clusters  []Cluster
	StyleUsed string
}
