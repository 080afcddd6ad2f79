// ============================================================================
// backend/internal/fanout/fanout.go
// Bounded-concurrency fan-out with per-call timeouts
// ============================================================================

package fanout

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when Options.Limit is not positive.
const DefaultLimit = 8

// Options bounds a fan-out.
type Options struct {
	Limit   int           // maximum calls in flight
	Timeout time.Duration // per call, 0 disables
}

// Result is the outcome of one call, stored at the index of its input.
type Result[T any] struct {
	Value T
	Err   error
}

// Map calls fn for every item with at most opts.Limit calls in flight and
// returns the results in input order. A failing item never cancels its
// siblings. Once ctx is done, items that have not started yet are skipped and
// report ctx.Err(). Map returns after every started call has returned.
func Map[In, Out any](ctx context.Context, opts Options, items []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(items))
	if len(items) == 0 {
		return results
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(items); j++ {
				results[j].Err = err
			}
			break
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			callCtx := ctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			v, err := fn(callCtx, item)
			if err == nil && callCtx.Err() != nil {
				// finished past its deadline, counts as timed out
				var zero Out
				v, err = zero, callCtx.Err()
			}
			results[i] = Result[Out]{Value: v, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
