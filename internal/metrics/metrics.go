// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus instrumentation for the chokepoint
// pipeline's upstream fan-out, fallback ladder, clustering, and caches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TileFetchDuration tracks per-tile fetch latency by style and outcome.
	TileFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chokepoint_tile_fetch_duration_seconds",
			Help:    "Duration of vector tile fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"style", "outcome"}, // outcome: hit, miss_ok, miss_error
	)

	// TileCacheHits and TileCacheMisses track the per-tile cache's
	// effectiveness.
	TileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chokepoint_tile_cache_hits_total",
			Help: "Total number of vector tile cache hits",
		},
	)

	TileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chokepoint_tile_cache_misses_total",
			Help: "Total number of vector tile cache misses",
		},
	)

	// StyleFallbackWins counts which flow style ultimately yielded
	// features, by style name.
	StyleFallbackWins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chokepoint_style_fallback_wins_total",
			Help: "Count of requests where a given flow style won the fallback race",
		},
		[]string{"style"},
	)

	// SeverityFallbackStage counts how often the fallback ladder advances
	// past the requested jfMin (relaxed threshold, escalated zoom, or the
	// terminal grid probe).
	SeverityFallbackStage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chokepoint_severity_fallback_stage_total",
			Help: "Count of pipeline runs that reached a given severity fallback stage",
		},
		[]string{"stage"}, // requested, relaxed_2_0, relaxed_0_5, zoom_escalated, grid_probe
	)

	// IncidentFetchSplits counts how many sub-bbox fan-outs a single
	// incident fetch required.
	IncidentFetchSplits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chokepoint_incident_fetch_splits",
			Help:    "Number of sub-bbox requests issued per incident fetch",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)

	// ClusterCount tracks the cluster count per pipeline run.
	ClusterCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chokepoint_cluster_count",
			Help:    "Number of non-noise clusters produced per pipeline run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// ResultCacheHits and ResultCacheMisses track the final-result cache.
	ResultCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chokepoint_result_cache_hits_total",
			Help: "Total number of result-cache hits (pipeline skipped entirely)",
		},
	)

	ResultCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chokepoint_result_cache_misses_total",
			Help: "Total number of result-cache misses (pipeline executed)",
		},
	)

	// PipelineDuration tracks end-to-end pipeline latency.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chokepoint_pipeline_duration_seconds",
			Help:    "End-to-end duration of a live chokepoint pipeline run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	// UpstreamRequestsTotal counts outbound calls to the four TomTom-style
	// endpoints by endpoint and outcome.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chokepoint_upstream_requests_total",
			Help: "Total outbound requests to upstream traffic endpoints",
		},
		[]string{"endpoint", "outcome"}, // endpoint: tile, flow_segment, incidents, reverse_geocode
	)

	// CircuitBreakerState reports each breaker's current state.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chokepoint_circuit_breaker_state",
			Help: "Circuit breaker state by endpoint (0=closed, 1=half-open, 2=open)",
		},
		[]string{"endpoint"},
	)

	// apiRequestDuration tracks the thin HTTP surface's request latency by
	// route and status code.
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chokepoint_api_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the chokepoint API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// apiActiveRequests tracks in-flight HTTP requests.
	apiActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chokepoint_api_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// RecordAPIRequest records one completed HTTP request's outcome and
// latency.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	apiRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		apiActiveRequests.Inc()
		return
	}
	apiActiveRequests.Dec()
}
