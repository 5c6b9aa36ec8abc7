// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"strings"

	"github.com/akashdesaidev/trafficInsight/internal/geo"
)

// ExtractSamples walks decoded features and emits a SamplePoint for every
// one whose resolved severity clears jfMin (on the jam-factor 0-10 scale).
// Property shapes vary across provider tile styles, so severity resolution
// tries jam factor, then traffic level, then a current/free speed ratio,
// in that fixed order — the first that matches wins.
func ExtractSamples(features []TileFeature, jfMin float64) []SamplePoint {
	samples := make([]SamplePoint, 0, len(features))

	for _, f := range features {
		severity, ok := resolveSeverity(f.Properties)
		if !ok {
			continue
		}
		if severity*10 < jfMin {
			continue
		}

		lon, lat, ok := representativePoint(f)
		if !ok {
			continue
		}

		samples = append(samples, SamplePoint{
			Lat:      lat,
			Lon:      lon,
			Severity: severity,
			Weight:   severity,
		})
	}

	return samples
}

// resolveSeverity implements the first-match-wins property resolution the
// extractor uses across heterogeneous tile styles.
func resolveSeverity(props map[string]interface{}) (float64, bool) {
	if v, ok := jamFactorOf(props); ok {
		return clamp(v, 0, 10) / 10, true
	}
	if v, ok := trafficLevelOf(props); ok {
		return v, true
	}
	if v, ok := speedRatioOf(props); ok {
		return v, true
	}
	return 0, false
}

// jamFactorOf matches a numeric property whose name contains "jam" or
// exactly equals "jf"/"jam_factor".
func jamFactorOf(props map[string]interface{}) (float64, bool) {
	for key, raw := range props {
		lower := strings.ToLower(key)
		if lower == "jf" || lower == "jam_factor" || strings.Contains(lower, "jam") {
			if v, ok := toFloat(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func trafficLevelOf(props map[string]interface{}) (float64, bool) {
	raw, ok := props["traffic_level"]
	if !ok {
		return 0, false
	}

	if v, ok := toFloat(raw); ok {
		switch {
		case v >= 0 && v <= 1:
			return v, true
		case v <= 5:
			return v / 5, true
		default:
			return v / 10, true
		}
	}

	if s, ok := raw.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "free":
			return 0, true
		case "low", "light":
			return 0.2, true
		case "moderate", "medium":
			return 0.5, true
		case "high", "heavy":
			return 0.8, true
		case "severe":
			return 0.9, true
		case "critical":
			return 1.0, true
		}
	}

	return 0, false
}

func speedRatioOf(props map[string]interface{}) (float64, bool) {
	current, ok := firstFloat(props, "currentSpeed", "current_speed", "cs")
	if !ok {
		return 0, false
	}
	free, ok := firstFloat(props, "freeFlowSpeed", "free_flow_speed", "ffs")
	if !ok || free <= 0 {
		return 0, false
	}
	return 1 - clamp(current/free, 0, 1), true
}

func firstFloat(props map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if raw, ok := props[k]; ok {
			if v, ok := toFloat(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// representativePoint picks the middle vertex of a feature's geometry (the
// first line of a MultiLineString, or the line itself) and projects it
// from tile-local coordinates to WGS84 lon/lat.
func representativePoint(f TileFeature) (lon, lat float64, ok bool) {
	var tx, ty float64

	switch {
	case f.Geometry.Point != nil:
		tx, ty = f.Geometry.Point[0], f.Geometry.Point[1]
	case len(f.Geometry.Line) > 0:
		tx, ty = midVertex(f.Geometry.Line)
	case len(f.Geometry.MultiLine) > 0:
		tx, ty = midVertex(f.Geometry.MultiLine[0])
	default:
		return 0, 0, false
	}

	point := geo.TileToLonLat(f.Z, f.X, f.Y, tx, ty, f.Extent)
	return point.Lon, point.Lat, true
}

// midVertex returns the geometric middle of a line: the exact middle
// vertex for an odd vertex count, or the average of the two central
// vertices for an even count (e.g. a simple two-point segment yields its
// midpoint).
func midVertex(line [][2]float64) (float64, float64) {
	n := len(line)
	if n%2 == 1 {
		p := line[n/2]
		return p[0], p[1]
	}
	a, b := line[n/2-1], line[n/2]
	return (a[0] + b[0]) / 2, (a[1] + b[1]) / 2
}
