// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/akashdesaidev/trafficInsight/internal/chokepoint"
	"github.com/akashdesaidev/trafficInsight/internal/config"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/logging"
)

// Handler wires the thin HTTP surface to the chokepoint pipeline. The live
// endpoint always resolves against cfg.Bbox — per the bbox-contract
// resolution, any inbound bbox is ignored there. The probe endpoint accepts
// and honors a caller-supplied bbox, subject only to its own tile cap.
type Handler struct {
	Pipeline *chokepoint.CachedPipeline
	Fetcher  chokepoint.TileSource
	Config   *config.Config
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func queryFloat(r *http.Request, name string, def float64) float64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}

func queryBool(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

// Chokepoints handles GET /traffic/chokepoints, per spec.md §6's
// liveChokepoints operation. The deployment-pinned bbox is always used.
func (h *Handler) Chokepoints(w http.ResponseWriter, r *http.Request) {
	p := h.Config.Pipeline
	req := chokepoint.Request{
		Bbox: geo.BoundingBox{
			MinLon: h.Config.Bbox.MinLon, MinLat: h.Config.Bbox.MinLat,
			MaxLon: h.Config.Bbox.MaxLon, MaxLat: h.Config.Bbox.MaxLat,
		},
		Zoom:                clampInt(queryInt(r, "z", p.Zoom), 0, 22),
		MinZoom:             p.MinZoom,
		MaxTilesLive:        p.MaxTilesLive,
		MaxTilesProbe:       p.MaxTilesProbe,
		EpsM:                clampFloat(queryFloat(r, "eps_m", p.EpsM), 50, 1000),
		MinSamples:          clampFloat(queryFloat(r, "min_samples", p.MinSamples), 1, 20),
		JFMin:               clampFloat(queryFloat(r, "jf_min", p.JFMin), 0, 10),
		IncidentRadiusM:     clampFloat(queryFloat(r, "incident_radius_m", p.IncidentRadiusM), 0, 1000),
		IncludeGeocode:      queryBool(r, "include_geocode", p.IncludeGeocode),
		IncidentSplitKm2:    p.IncidentSplitKm2,
		TileConcurrency:     p.TileConcurrency,
		IncidentConcurrency: p.IncidentConcurrency,
		ProbeConcurrency:    p.ProbeConcurrency,
	}

	result, err := h.Pipeline.Run(r.Context(), req)
	if err != nil {
		var cfgErr *chokepoint.ConfigurationError
		if errors.As(err, &cfgErr) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("live chokepoints pipeline misconfigured")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("live chokepoints pipeline failed")
		writeError(w, http.StatusInternalServerError, "failed to compute live chokepoints")
		return
	}

	writeJSON(w, http.StatusOK, toResultDTO(result))
}

// vectorProbeResponse mirrors the original service's diagnostic probe
// shape: enough to confirm jamFactor/speed fields are present in the tiles
// for a given bbox without running the full pipeline.
type vectorProbeResponse struct {
	Zoom         int                      `json:"zoom"`
	Style        string                   `json:"style"`
	TileCount    int                      `json:"tile_count"`
	FeatureCount int                      `json:"feature_count"`
	Samples      []map[string]interface{} `json:"sample_properties"`
}

// VectorProbe handles GET /traffic/vector-probe?bbox=minLon,minLat,maxLon,maxLat.
// Unlike Chokepoints, it honors the caller-supplied bbox. If the tile count
// exceeds MaxTilesProbe it drops one zoom level (not below MinZoom); the
// count at that zoom is not capped further.
func (h *Handler) VectorProbe(w http.ResponseWriter, r *http.Request) {
	bbox, err := parseBboxParam(r.URL.Query().Get("bbox"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	z := clampInt(queryInt(r, "z", h.Config.Pipeline.Zoom), h.Config.Pipeline.MinZoom, 22)
	maxSamples := clampInt(queryInt(r, "max_samples", 10), 1, 100)

	tiles, zoom := chokepoint.TileCoverage(bbox, z, h.Config.Pipeline.MinZoom, h.Config.Pipeline.MaxTilesProbe)

	features, style, err := h.Fetcher.FetchTilesMulti(r.Context(), tiles, zoom, h.Config.Pipeline.TileConcurrency)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("vector probe tile fetch failed")
		writeError(w, http.StatusInternalServerError, "tile fetch/decode failed")
		return
	}

	samples := make([]map[string]interface{}, 0, maxSamples)
	for i, f := range features {
		if i >= maxSamples {
			break
		}
		samples = append(samples, f.Properties)
	}

	writeJSON(w, http.StatusOK, vectorProbeResponse{
		Zoom:         zoom,
		Style:        style,
		TileCount:    len(tiles),
		FeatureCount: len(features),
		Samples:      samples,
	})
}

// parseBboxParam parses "minLon,minLat,maxLon,maxLat".
func parseBboxParam(raw string) (geo.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, errInvalidBbox
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BoundingBox{}, errInvalidBbox
		}
		vals[i] = v
	}
	return geo.BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}, nil
}

var errInvalidBbox = &bboxError{}

type bboxError struct{}

func (e *bboxError) Error() string {
	return "invalid bbox format, expected minLon,minLat,maxLon,maxLat"
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
