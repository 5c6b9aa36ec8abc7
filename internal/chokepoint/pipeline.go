// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"fmt"
	"time"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/logging"
	"github.com/akashdesaidev/trafficInsight/internal/metrics"
)

// Request holds one invocation's fully-resolved parameters — defaults are
// the caller's responsibility (the HTTP handler applies spec.md §6's
// documented defaults before constructing a Request).
type Request struct {
	Bbox                geo.BoundingBox
	Zoom                int
	MinZoom             int
	MaxTilesLive        int
	MaxTilesProbe       int
	EpsM                float64
	MinSamples          float64
	JFMin               float64
	IncidentRadiusM     float64
	IncludeGeocode      bool
	IncidentSplitKm2    float64
	TileConcurrency     int
	IncidentConcurrency int
	ProbeConcurrency    int
}

// zoomEscalationLevels are the alternate zooms the fallback ladder tries,
// in order, once threshold relaxation at the original zoom still yields no
// samples.
var zoomEscalationLevels = []int{13, 14}

// TileSource is the subset of *TileFetcher the pipeline depends on, so it
// can be exercised against a fake in tests without real vector-tile bytes.
type TileSource interface {
	FetchTilesMulti(ctx context.Context, tiles []geo.TileIndex, z, concurrencyLimit int) ([]TileFeature, string, error)
}

// Pipeline wires the eight pipeline stages (tile coverage through
// aggregation) over a single set of upstream dependencies. It does not
// itself cache the final result — wrap it in CachedPipeline for that.
type Pipeline struct {
	Fetcher        TileSource
	IncidentClient IncidentClient
	SegmentClient  FlowSegmentClient
	Geocoder       Geocoder
}

// Run executes the full pipeline for one request. Transport failures on
// any upstream subtask are already tolerated by the stages themselves.
// Run returns a *ConfigurationError when Fetcher or IncidentClient is nil;
// otherwise the only error it returns is context cancellation propagated
// up from a fan-out, in which case the caller must discard any partial
// result and cache nothing.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if p.Fetcher == nil || p.IncidentClient == nil {
		return Result{}, &ConfigurationError{Reason: "chokepoint pipeline missing a required upstream dependency"}
	}

	tiles, zoom := TileCoverage(req.Bbox, req.Zoom, req.MinZoom, req.MaxTilesLive)
	logging.Ctx(ctx).Debug().Int("requested_zoom", req.Zoom).Int("resolved_zoom", zoom).Int("tile_count", len(tiles)).Msg("tile coverage computed")

	features, styleUsed, err := p.Fetcher.FetchTilesMulti(ctx, tiles, zoom, req.TileConcurrency)
	if err != nil {
		return Result{}, fmt.Errorf("fetch tiles: %w", err)
	}
	logging.Ctx(ctx).Debug().Int("feature_count", len(features)).Str("style", styleUsed).Msg("tiles decoded")

	samples, err := p.samplesWithFallbackLadder(ctx, req, zoom, features)
	if err != nil {
		return Result{}, err
	}

	incidents, err := FetchIncidents(ctx, p.IncidentClient, req.Bbox, req.IncidentSplitKm2, req.IncidentConcurrency)
	if err != nil {
		return Result{}, fmt.Errorf("fetch incidents: %w", err)
	}

	samples = ApplyIncidentBoost(samples, incidents, req.IncidentRadiusM)

	clusters := Cluster(samples, req.EpsM, req.MinSamples)
	metrics.ClusterCount.Observe(float64(len(clusters)))

	aggregated := Aggregate(ctx, clusters, incidents, req.IncidentRadiusM, p.Geocoder, req.IncludeGeocode)

	return Result{Clusters: aggregated, StyleUsed: styleUsed}, nil
}

// samplesWithFallbackLadder implements §4.4's fallback ladder: progressive
// jfMin relaxation, then zoom escalation, then the grid probe, stopping as
// soon as a stage yields at least one sample.
func (p *Pipeline) samplesWithFallbackLadder(ctx context.Context, req Request, zoom int, features []TileFeature) ([]SamplePoint, error) {
	metrics.SeverityFallbackStage.WithLabelValues("requested").Inc()
	samples := ExtractSamples(features, req.JFMin)
	if len(samples) > 0 {
		return samples, nil
	}

	if req.JFMin > 2.0 {
		metrics.SeverityFallbackStage.WithLabelValues("relaxed_2_0").Inc()
		samples = ExtractSamples(features, 2.0)
		if len(samples) > 0 {
			return samples, nil
		}
	}

	metrics.SeverityFallbackStage.WithLabelValues("relaxed_0_5").Inc()
	samples = ExtractSamples(features, 0.5)
	if len(samples) > 0 {
		return samples, nil
	}

	if zoom < 14 {
		metrics.SeverityFallbackStage.WithLabelValues("zoom_escalated").Inc()
		for _, zAlt := range zoomEscalationLevels {
			if zAlt <= zoom {
				continue
			}
			altTiles := geo.TilesForBbox(req.Bbox, zAlt)
			if len(altTiles) > req.MaxTilesProbe {
				continue
			}
			altFeatures, _, err := p.Fetcher.FetchTilesMulti(ctx, altTiles, zAlt, req.TileConcurrency)
			if err != nil {
				return nil, fmt.Errorf("fetch escalated-zoom tiles: %w", err)
			}
			jfMin := req.JFMin
			if jfMin < 2.0 {
				jfMin = 2.0
			}
			samples = ExtractSamples(altFeatures, jfMin)
			logging.Ctx(ctx).Debug().Int("zoom", zAlt).Int("tiles", len(altTiles)).Int("features", len(altFeatures)).Int("samples", len(samples)).Msg("zoom escalation attempt")
			if len(samples) > 0 {
				return samples, nil
			}
		}
	}

	if p.SegmentClient != nil {
		metrics.SeverityFallbackStage.WithLabelValues("grid_probe").Inc()
		probed, err := GridProbe(ctx, p.SegmentClient, req.Bbox, req.ProbeConcurrency)
		if err != nil {
			return nil, fmt.Errorf("grid probe: %w", err)
		}
		return probed, nil
	}

	return nil, nil
}

// CachedPipeline wraps a Pipeline with the final ResultCache stage: a short
// TTL memoization keyed by every request parameter, per §4.9. A
// configuration-failed run is never cached.
type CachedPipeline struct {
	inner *Pipeline
	cache cache.Cacher
	ttl   time.Duration
}

// NewCachedPipeline builds a CachedPipeline. A non-positive ttl falls back
// to the spec's ~60s default.
func NewCachedPipeline(inner *Pipeline, resultCache cache.Cacher, ttl time.Duration) *CachedPipeline {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &CachedPipeline{inner: inner, cache: resultCache, ttl: ttl}
}

// Run returns the cached result for req's canonical key if present and
// unexpired; otherwise it executes the full pipeline, caches a successful
// result, and returns it. A ConfigurationError or cancellation propagates
// to the caller without being cached.
func (p *CachedPipeline) Run(ctx context.Context, req Request) (Result, error) {
	key := resultCacheKey(req)
	if v, ok := p.cache.Get(key); ok {
		metrics.ResultCacheHits.Inc()
		return v.(Result), nil
	}
	metrics.ResultCacheMisses.Inc()

	start := time.Now()
	result, err := p.inner.Run(ctx, req)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Result{}, err
	}

	p.cache.SetWithTTL(key, result, p.ttl)
	return result, nil
}

// resultCacheKey canonicalizes the bbox (rounded to 5 decimals per §4.9),
// zoom, epsM, minSamples, jfMin, incidentRadiusM and includeGeocode. The
// other Request fields (MinZoom, the tile caps, IncidentSplitKm2 and the
// concurrency limits) are not part of the key.
func resultCacheKey(req Request) string {
	b := req.Bbox.Round(5)
	return fmt.Sprintf(
		"result:%.5f,%.5f,%.5f,%.5f:z=%d:eps=%.1f:minS=%.1f:jf=%.2f:ir=%.1f:geo=%t",
		b.MinLon, b.MinLat, b.MaxLon, b.MaxLat,
		req.Zoom, req.EpsM, req.MinSamples, req.JFMin, req.IncidentRadiusM, req.IncludeGeocode,
	)
}
