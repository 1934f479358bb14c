package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// mapBounded applies fn to every item on an ants pool of at most workers
// goroutines. Each result is written to the slot of its input, so the output
// order matches the input order regardless of completion order.
//
// A panicking task does not affect its siblings; its slot is filled by
// recovered. Items not yet started when ctx is cancelled keep the zero value
// and the context error is returned once the running tasks finish.
func mapBounded[T, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(ctx context.Context, i int, item T) R,
	recovered func(i int, item T, cause any) R,
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]R, len(items))
	var wg sync.WaitGroup
	var stopErr error

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = recovered(i, item, r)
				}
			}()
			results[i] = fn(ctx, i, item)
		}
		// Blocks while every worker is busy.
		if err := pool.Submit(task); err != nil {
			wg.Done()
			stopErr = fmt.Errorf("submitting task %d: %w", i, err)
			break
		}
	}
	wg.Wait()

	return results, stopErr
}
