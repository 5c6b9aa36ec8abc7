// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Command server runs the live chokepoint detection HTTP surface: the
// /traffic/chokepoints and /traffic/vector-probe routes plus /healthz and
// /metrics, wired over the
// chokepoint pipeline in internal/chokepoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akashdesaidev/trafficInsight/internal/api"
	"github.com/akashdesaidev/trafficInsight/internal/cache"
	"github.com/akashdesaidev/trafficInsight/internal/chokepoint"
	"github.com/akashdesaidev/trafficInsight/internal/config"
	"github.com/akashdesaidev/trafficInsight/internal/logging"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

// tomtomBaseURL is the upstream provider's API root, fixed per spec.md §6's
// documented outbound endpoints.
const tomtomBaseURL = "https://api.tomtom.com"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Float64("bbox_min_lon", cfg.Bbox.MinLon).Float64("bbox_min_lat", cfg.Bbox.MinLat).
		Float64("bbox_max_lon", cfg.Bbox.MaxLon).Float64("bbox_max_lat", cfg.Bbox.MaxLat).
		Int("zoom", cfg.Pipeline.Zoom).
		Msg("starting trafficInsight live chokepoint detection server")

	client := upstream.New(tomtomBaseURL, cfg.TomTom, cfg.Pipeline.RequestTimeout)

	tileCache := cache.NewTTL(cfg.Pipeline.TileCacheTTL)
	resultCache := cache.NewTTL(cfg.Pipeline.ResultCacheTTL)
	geocodeCache := cache.NewTTL(cfg.Pipeline.GeocodeCacheTTL)

	fetcher := chokepoint.NewTileFetcher(client, tileCache, cfg.Pipeline.TileConcurrency, cfg.Pipeline.TileCacheTTL)
	geocoder := chokepoint.NewCachedGeocoder(client, geocodeCache)

	pipeline := &chokepoint.Pipeline{
		Fetcher:        fetcher,
		IncidentClient: client,
		SegmentClient:  client,
		Geocoder:       geocoder,
	}
	cachedPipeline := chokepoint.NewCachedPipeline(pipeline, resultCache, cfg.Pipeline.ResultCacheTTL)

	handler := &api.Handler{Pipeline: cachedPipeline, Fetcher: fetcher, Config: cfg}
	router := api.NewRouter(handler, nil)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Pipeline.RequestTimeout,
		WriteTimeout: cfg.Pipeline.RequestTimeout * 2,
		IdleTimeout:  60 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serverErrCh:
		if err != nil {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}

	logging.Info().Msg("trafficInsight server stopped")
}
