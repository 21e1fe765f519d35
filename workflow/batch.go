package workflow

import (
	"context"
	"maps"
	"slices"

	"github.com/tailored-agentic-units/loadstate/async"
	"github.com/tailored-agentic-units/loadstate/observability"
)

// TrackBatch tracks every future under its own key in group, and their
// conjunction under the runner's aggregate key. The returned map has the
// same keys as futures; each value carries the original result. A key equal
// to the aggregate key shares its record, so callers should avoid it.
func TrackBatch[T any](ctx context.Context, r *Runner, group string, futures map[string]*async.Future[T]) map[string]*async.Future[T] {
	ctx = context.WithoutCancel(ctx)

	r.emit(ctx, observability.EventBatchStart, observability.LevelInfo, "workflow.TrackBatch", map[string]any{
		observability.KeyGroup: group,
		observability.KeySize:  len(futures),
	})

	aggregate := Track(ctx, r, group, r.aggregateKey, async.All(futures))
	r.acquire()
	go func() {
		defer r.release()
		if _, err := aggregate.Await(ctx); err != nil {
			r.emit(ctx, observability.EventBatchFailure, observability.LevelError, "workflow.TrackBatch", map[string]any{
				observability.KeyGroup: group,
				observability.KeySize:  len(futures),
				observability.KeyError: err,
			})
			return
		}
		r.emit(ctx, observability.EventBatchComplete, observability.LevelInfo, "workflow.TrackBatch", map[string]any{
			observability.KeyGroup: group,
			observability.KeySize:  len(futures),
		})
	}()

	results := make(map[string]*async.Future[T], len(futures))
	for _, key := range slices.Sorted(maps.Keys(futures)) {
		results[key] = Track(ctx, r, group, key, futures[key])
	}
	return results
}

// RunBatch starts every operation and tracks them as TrackBatch does. All
// in-flight patches are written before any operation is launched.
func RunBatch[T any](ctx context.Context, r *Runner, group string, ops map[string]async.Operation[T]) map[string]*async.Future[T] {
	futures := make(map[string]*async.Future[T], len(ops))
	starts := make([]func(), 0, len(ops))
	for key, op := range ops {
		f, start := async.Deferred(ctx, op)
		futures[key] = f
		starts = append(starts, start)
	}

	results := TrackBatch(ctx, r, group, futures)
	for _, start := range starts {
		start()
	}
	return results
}

// LoadStates runs ops as a batch in GroupStates.
func LoadStates[T any](ctx context.Context, r *Runner, ops map[string]async.Operation[T]) map[string]*async.Future[T] {
	return RunBatch(ctx, r, GroupStates, ops)
}
