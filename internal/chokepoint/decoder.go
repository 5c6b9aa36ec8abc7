// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
)

// DecodeTile parses a raw vector-tile payload into a flat, tile-local
// representation. Coordinates are deliberately left in tile-local integer
// space — ProjectToWGS84 is never called here — so the severity extractor
// can reproduce the exact projection formula the spec requires instead of
// inheriting whatever convention the decoding library uses internally.
func DecodeTile(raw RawTile) (DecodedTile, error) {
	layers, err := mvt.Unmarshal(raw.Data)
	if err != nil {
		layers, err = mvt.UnmarshalGzipped(raw.Data)
		if err != nil {
			return DecodedTile{}, &DecodeError{Reason: "unmarshal vector tile", Err: err}
		}
	}

	decoded := DecodedTile{Z: raw.Z, X: raw.X, Y: raw.Y, Layers: make(map[string]TileLayer, len(layers))}

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		extent := int(layer.Extent)
		if extent == 0 {
			extent = 4096
		}

		features := make([]TileFeature, 0, len(layer.Features))
		for _, f := range layer.Features {
			if f == nil {
				continue
			}
			geomField, ok := geometryToFeature(f.Geometry)
			if !ok {
				continue
			}
			features = append(features, TileFeature{
				LayerName:  layer.Name,
				Properties: map[string]interface{}(f.Properties),
				Geometry:   geomField,
				Extent:     extent,
				Z:          raw.Z,
				X:          raw.X,
				Y:          raw.Y,
			})
		}

		decoded.Layers[layer.Name] = TileLayer{Extent: extent, Features: features}
	}

	return decoded, nil
}

// geometryToFeature maps an orb geometry onto the structural variant the
// pipeline carries downstream. Anything other than Point, LineString, or
// MultiLineString is not a road-flow feature and is skipped.
func geometryToFeature(g orb.Geometry) (TileFeatureGeometry, bool) {
	switch geom := g.(type) {
	case orb.Point:
		pt := [2]float64{geom[0], geom[1]}
		return TileFeatureGeometry{Point: &pt}, true
	case orb.LineString:
		if len(geom) == 0 {
			return TileFeatureGeometry{}, false
		}
		line := make([][2]float64, len(geom))
		for i, p := range geom {
			line[i] = [2]float64{p[0], p[1]}
		}
		return TileFeatureGeometry{Line: line}, true
	case orb.MultiLineString:
		if len(geom) == 0 {
			return TileFeatureGeometry{}, false
		}
		lines := make([][][2]float64, len(geom))
		for i, ls := range geom {
			line := make([][2]float64, len(ls))
			for j, p := range ls {
				line[j] = [2]float64{p[0], p[1]}
			}
			lines[i] = line
		}
		return TileFeatureGeometry{MultiLine: lines}, true
	default:
		return TileFeatureGeometry{}, false
	}
}
