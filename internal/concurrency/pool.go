// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package concurrency provides the bounded fan-out primitive the pipeline
// reuses for tile fetches, incident sub-bbox fetches, and grid-probe
// queries: each gets its own independent concurrency limit, and a
// cancelled context aborts every still-pending item.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Each runs fn over every item in items, at most limit concurrently. It
// returns the first error encountered (others are still allowed to finish,
// their results discarded); callers that must tolerate per-item failure
// should have fn swallow its own errors and report them out-of-band instead
// of returning them here.
func Each[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) error {
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	g, gctx := errgroup.WithContext(ctx)

	for _, item := range items {
		item := item
		if err := sem.Acquire(gctx, 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return fn(gctx, item)
		})
	}
	return g.Wait()
}
