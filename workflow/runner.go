package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/loadstate/async"
	"github.com/tailored-agentic-units/loadstate/observability"
	"github.com/tailored-agentic-units/loadstate/state"
)

// Option adjusts a Runner after config-driven construction.
type Option func(*Runner)

// WithObserver replaces the observer resolved from Config.Observer.
func WithObserver(o observability.Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// Runner writes load-state transitions for tracked operations into a Store.
type Runner struct {
	store        *state.Store
	observer     observability.Observer
	aggregateKey string
	clearFailed  bool

	mu      sync.Mutex
	pending int
	idle    []chan struct{}
}

// New creates a Runner writing into store.
func New(store *state.Store, cfg *Config, opts ...Option) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("workflow: nil store")
	}

	merged := DefaultConfig()
	if cfg != nil {
		merged.Merge(cfg)
	}

	observer, err := observability.GetObserver(merged.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	r := &Runner{
		store:        store,
		observer:     observer,
		aggregateKey: merged.AggregateKey,
		clearFailed:  merged.ClearFailedOnStart(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Store returns the store the runner writes into.
func (r *Runner) Store() *state.Store {
	return r.store
}

// AggregateKey returns the key batches track their conjunction under.
func (r *Runner) AggregateKey() string {
	return r.aggregateKey
}

// Wait blocks until every attempt tracked so far has settled and had its
// bookkeeping written, or until ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == 0 {
		r.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	r.idle = append(r.idle, ch)
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) acquire() {
	r.mu.Lock()
	r.pending++
	r.mu.Unlock()
}

func (r *Runner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending--
	if r.pending > 0 {
		return
	}
	for _, ch := range r.idle {
		close(ch)
	}
	r.idle = nil
}

func (r *Runner) emit(ctx context.Context, typ observability.EventType, level observability.Level, source string, data map[string]any) {
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   typ,
		Level:  level,
		Source: source,
		Data:   data,
	})
}

// Track attaches bookkeeping to f, which may already be running. The
// in-flight patch is written before Track returns.
func Track[T any](ctx context.Context, r *Runner, group, key string, f *async.Future[T]) *async.Future[T] {
	return track(ctx, r, group, key, f, nil)
}

// Run starts op under (group, key). The in-flight patch is written before op
// is launched.
func Run[T any](ctx context.Context, r *Runner, group, key string, op async.Operation[T]) *async.Future[T] {
	f, start := async.Deferred(ctx, op)
	return track(ctx, r, group, key, f, start)
}

// RunAction runs op in GroupActions.
func RunAction[T any](ctx context.Context, r *Runner, key string, op async.Operation[T]) *async.Future[T] {
	return Run(ctx, r, GroupActions, key, op)
}

func track[T any](ctx context.Context, r *Runner, group, key string, f *async.Future[T], start func()) *async.Future[T] {
	ctx = context.WithoutCancel(ctx)
	runID := uuid.Must(uuid.NewV7()).String()
	began := time.Now()

	rec := r.store.Patch(group, key, state.Start(r.clearFailed))
	r.acquire()

	r.emit(ctx, observability.EventLoadStart, observability.LevelVerbose, "workflow.Track", map[string]any{
		observability.KeyGroup:      group,
		observability.KeyKey:        key,
		observability.KeyRunID:      runID,
		observability.KeyActivating: rec.Activating,
		observability.KeyReloading:  rec.Reloading,
	})

	derived := async.Then(f, func(value T, err error) (T, error) {
		defer r.release()

		data := map[string]any{
			observability.KeyGroup:    group,
			observability.KeyKey:      key,
			observability.KeyRunID:    runID,
			observability.KeyDuration: time.Since(began),
		}

		if err != nil {
			r.store.Patch(group, key, state.Fail(err))
			data[observability.KeyError] = err
			r.emit(ctx, observability.EventLoadFailure, observability.LevelVerbose, "workflow.Track", data)
			return value, err
		}

		r.store.Patch(group, key, state.Succeed())
		r.emit(ctx, observability.EventLoadSuccess, observability.LevelVerbose, "workflow.Track", data)
		return value, nil
	})

	if start != nil {
		start()
	}
	return derived
}
