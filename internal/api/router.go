// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package api is the thin HTTP surface in front of the chokepoint pipeline:
// a live-detection route and a diagnostic vector-probe route plus health
// and metrics endpoints. Request
// routing itself is out of scope for the core (spec.md §1) — this package
// exists only so the core is runnable as a server.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router, wiring CORS (teacher's ADR-0016 chi
// pattern), request-ID propagation, and Prometheus instrumentation ahead of
// every route.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(prometheusMetrics)
	r.Use(chimw.Recoverer)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/traffic", func(tr chi.Router) {
		tr.Get("/chokepoints", h.Chokepoints)
		tr.Get("/vector-probe", h.VectorProbe)
	})

	return r
}
