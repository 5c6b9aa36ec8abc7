// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/akashdesaidev/trafficInsight/internal/logging"
	"github.com/akashdesaidev/trafficInsight/internal/metrics"
)

// requestID generates (or propagates) a correlation ID for each request and
// attaches it to the logging context, mirroring the teacher's
// internal/middleware.RequestID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := logging.ContextWithRequestID(r.Context(), id)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// prometheusMetrics records request latency and in-flight count per route,
// using chi's route pattern rather than the raw path so cardinality stays
// bounded.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chiRoutePattern(r)
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

func chiRoutePattern(r *http.Request) string {
	if rctx := middleware.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
