// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package chokepoint

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashdesaidev/trafficInsight/internal/cache"
	"github.com/akashdesaidev/trafficInsight/internal/geo"
)

type fakeTileClient struct {
	calls    int32
	failFor  map[[3]int]bool
	payload  []byte
}

func (f *fakeTileClient) FetchTile(_ context.Context, _ string, z, x, y int) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failFor != nil && f.failFor[[3]int{z, x, y}] {
		return nil, assert.AnError
	}
	return f.payload, nil
}

func TestFetchTilesCachesPerStyleZXY(t *testing.T) {
	client := &fakeTileClient{payload: []byte("tile-bytes")}
	f := NewTileFetcher(client, cache.NewTTL(time.Minute), 8, time.Minute)

	tiles := []geo.TileIndex{{Z: 13, X: 1, Y: 1}, {Z: 13, X: 1, Y: 2}}

	raws1, err := f.FetchTiles(context.Background(), tiles, 13, "relative", 0)
	require.NoError(t, err)
	assert.Len(t, raws1, 2)
	assert.EqualValues(t, 2, client.calls)

	raws2, err := f.FetchTiles(context.Background(), tiles, 13, "relative", 0)
	require.NoError(t, err)
	assert.Len(t, raws2, 2)
	assert.EqualValues(t, 2, client.calls, "second fetch of the same tiles must be served entirely from cache")
}

func TestFetchTilesTreatsPerTileFailureAsSilentDrop(t *testing.T) {
	client := &fakeTileClient{
		payload: []byte("tile-bytes"),
		failFor: map[[3]int]bool{{13, 1, 1}: true},
	}
	f := NewTileFetcher(client, cache.NewTTL(time.Minute), 8, time.Minute)

	tiles := []geo.TileIndex{{Z: 13, X: 1, Y: 1}, {Z: 13, X: 1, Y: 2}}
	raws, err := f.FetchTiles(context.Background(), tiles, 13, "relative", 0)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, 2, raws[0].X)
}

func TestFetchTilesDifferentStylesAreIndependentCacheKeys(t *testing.T) {
	client := &fakeTileClient{payload: []byte("tile-bytes")}
	f := NewTileFetcher(client, cache.NewTTL(time.Minute), 8, time.Minute)

	tiles := []geo.TileIndex{{Z: 13, X: 1, Y: 1}}
	_, err := f.FetchTiles(context.Background(), tiles, 13, "relative", 0)
	require.NoError(t, err)
	_, err = f.FetchTiles(context.Background(), tiles, 13, "absolute", 0)
	require.NoError(t, err)

	assert.EqualValues(t, 2, client.calls, "different styles must not share a cache entry")
}
