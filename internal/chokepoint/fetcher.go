// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
	"github.com/akashdesaidev/trafficInsight/internal/concurrency"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
	"github.com/akashdesaidev/trafficInsight/internal/logging"
	"github.com/akashdesaidev/trafficInsight/internal/metrics"
	"github.com/akashdesaidev/trafficInsight/internal/upstream"
)

// TileClient is the subset of upstream.Client the fetcher depends on, so it
// can be exercised against a fake in tests.
type TileClient interface {
	FetchTile(ctx context.Context, style string, z, x, y int) ([]byte, error)
}

// TileFetcher concurrently retrieves vector flow tiles, memoizing each
// (style, z, x, y) for tileCacheTTL and bounding in-flight outbound
// requests to concurrencyLimit. It exclusively owns the per-tile cache per
// the pipeline's ownership rule — nothing else reads or writes these keys.
type TileFetcher struct {
	client           TileClient
	cache            cache.Cacher
	concurrencyLimit int
	tileCacheTTL     time.Duration
}

// NewTileFetcher builds a TileFetcher. A nil or non-positive concurrencyLimit
// and tileCacheTTL fall back to the spec's K=8 and ~60s defaults.
func NewTileFetcher(client TileClient, tileCache cache.Cacher, concurrencyLimit int, tileCacheTTL time.Duration) *TileFetcher {
	if concurrencyLimit <= 0 {
		concurrencyLimit = 8
	}
	if tileCacheTTL <= 0 {
		tileCacheTTL = 60 * time.Second
	}
	return &TileFetcher{client: client, cache: tileCache, concurrencyLimit: concurrencyLimit, tileCacheTTL: tileCacheTTL}
}

func tileCacheKey(style string, z, x, y int) string {
	return fmt.Sprintf("tile:%s:%d:%d:%d", style, z, x, y)
}

// FetchTiles retrieves every tile in tiles for the given style, either from
// the per-tile cache or the network. A per-tile failure (non-2xx, decode-
// irrelevant transport error) drops that tile silently; the batch itself
// only fails when the context is cancelled mid-fan-out. concurrencyLimit
// overrides the fetcher's constructor default for this call when positive
// (the request's own TileConcurrency knob); zero or negative falls back to
// f.concurrencyLimit.
func (f *TileFetcher) FetchTiles(ctx context.Context, tiles []geo.TileIndex, z int, style string, concurrencyLimit int) ([]RawTile, error) {
	if concurrencyLimit <= 0 {
		concurrencyLimit = f.concurrencyLimit
	}
	results := make([]RawTile, 0, len(tiles))
	var mu sync.Mutex

	err := concurrency.Each(ctx, tiles, concurrencyLimit, func(ctx context.Context, t geo.TileIndex) error {
		start := time.Now()
		key := tileCacheKey(style, z, t.X, t.Y)
		if v, ok := f.cache.Get(key); ok {
			metrics.TileCacheHits.Inc()
			metrics.TileFetchDuration.WithLabelValues(style, "hit").Observe(time.Since(start).Seconds())
			mu.Lock()
			results = append(results, v.(RawTile))
			mu.Unlock()
			return nil
		}
		metrics.TileCacheMisses.Inc()

		data, err := f.client.FetchTile(ctx, style, z, t.X, t.Y)
		if err != nil {
			metrics.TileFetchDuration.WithLabelValues(style, "miss_error").Observe(time.Since(start).Seconds())
			logging.Ctx(ctx).Debug().
				Str("style", style).Int("z", z).Int("x", t.X).Int("y", t.Y).
				Err(err).Msg("tile fetch failed")
			return nil
		}
		metrics.TileFetchDuration.WithLabelValues(style, "miss_ok").Observe(time.Since(start).Seconds())

		raw := RawTile{Style: style, Z: z, X: t.X, Y: t.Y, Data: data}
		f.cache.SetWithTTL(key, raw, f.tileCacheTTL)

		mu.Lock()
		results = append(results, raw)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// fetchDecodeStyle fetches and decodes every tile for one style, flattening
// all layers' features into a single slice. A malformed tile is logged and
// skipped; it never fails the batch.
func (f *TileFetcher) fetchDecodeStyle(ctx context.Context, tiles []geo.TileIndex, z int, style string, concurrencyLimit int) ([]TileFeature, error) {
	raws, err := f.FetchTiles(ctx, tiles, z, style, concurrencyLimit)
	if err != nil {
		return nil, err
	}

	features := make([]TileFeature, 0, len(raws)*4)
	for _, raw := range raws {
		decoded, err := DecodeTile(raw)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Int("z", raw.Z).Int("x", raw.X).Int("y", raw.Y).Msg("tile decode failed")
			continue
		}
		for _, layer := range decoded.Layers {
			features = append(features, layer.Features...)
		}
	}
	return features, nil
}

// FetchTilesMulti walks upstream.FlowStyles in priority order, returning
// the first style's features once a style yields at least one; the winning
// style name is recorded in the Result for observability and the
// style-fallback test scenario. concurrencyLimit is the caller's requested
// tile fan-out bound (Request.TileConcurrency); zero falls back to the
// fetcher's own constructor default.
func (f *TileFetcher) FetchTilesMulti(ctx context.Context, tiles []geo.TileIndex, z int, concurrencyLimit int) ([]TileFeature, string, error) {
	lastStyle := ""
	for _, style := range upstream.FlowStyles {
		lastStyle = style
		features, err := f.fetchDecodeStyle(ctx, tiles, z, style, concurrencyLimit)
		if err != nil {
			return nil, style, err
		}
		if len(features) > 0 {
			metrics.StyleFallbackWins.WithLabelValues(style).Inc()
			return features, style, nil
		}
	}
	return nil, lastStyle, nil
}
