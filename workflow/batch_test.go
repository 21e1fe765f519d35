package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/loadstate/async"
	"github.com/tailored-agentic-units/loadstate/observability"
	"github.com/tailored-agentic-units/loadstate/state"
	"github.com/tailored-agentic-units/loadstate/workflow"
)

func TestRunBatch_MixedResults(t *testing.T) {
	r, observer := newRunner(t, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	results := workflow.RunBatch(ctx, r, workflow.GroupStates, map[string]async.Operation[string]{
		"a": func(ctx context.Context) (string, error) { return "ok", nil },
		"b": func(ctx context.Context) (string, error) { return "", boom },
	})

	if len(results) != 2 {
		t.Fatalf("RunBatch() returned %d futures, want 2", len(results))
	}

	if got, err := results["a"].Await(ctx); err != nil || got != "ok" {
		t.Errorf("a = (%q, %v), want (ok, nil)", got, err)
	}
	if _, err := results["b"].Await(ctx); err != boom {
		t.Errorf("b error = %v, want %v", err, boom)
	}

	waitIdle(t, r)

	aggregate := mustGet(t, r, workflow.GroupStates, workflow.DefaultAggregateKey)
	if !errors.Is(aggregate.Failed, boom) {
		t.Errorf("aggregate Failed = %v, want wrapping %v", aggregate.Failed, boom)
	}
	if aggregate.Loading || aggregate.Loaded || aggregate.Activated {
		t.Errorf("aggregate record = %+v, want failed state", aggregate)
	}

	var keyErr *async.KeyError[string]
	if !errors.As(aggregate.Failed, &keyErr) || keyErr.Key != "b" {
		t.Errorf("aggregate Failed = %v, want KeyError for b", aggregate.Failed)
	}

	failures := observer.ofType(observability.EventBatchFailure)
	if len(failures) != 1 {
		t.Fatalf("batch.failure emitted %d times, want 1", len(failures))
	}
	if failures[0].Level != observability.LevelError {
		t.Errorf("batch.failure level = %v, want error", failures[0].Level)
	}
	if len(observer.ofType(observability.EventBatchComplete)) != 0 {
		t.Error("batch.complete emitted for a failed batch")
	}
}

func TestRunBatch_Empty(t *testing.T) {
	r, observer := newRunner(t, nil)

	results := workflow.LoadStates(context.Background(), r, map[string]async.Operation[int]{})
	if len(results) != 0 {
		t.Errorf("LoadStates() returned %d futures, want 0", len(results))
	}

	waitIdle(t, r)

	got := mustGet(t, r, workflow.GroupStates, workflow.DefaultAggregateKey)
	want := state.LoadState{Activated: true, Loaded: true}
	if got != want {
		t.Errorf("aggregate record = %+v, want %+v", got, want)
	}
	if len(observer.ofType(observability.EventBatchComplete)) != 1 {
		t.Error("batch.complete not emitted for empty batch")
	}
}

func TestRunBatch_AllSucceed(t *testing.T) {
	r, _ := newRunner(t, &workflow.Config{AggregateKey: "everything"})
	ctx := context.Background()

	results := workflow.RunBatch(ctx, r, "dashboard", map[string]async.Operation[int]{
		"users": func(ctx context.Context) (int, error) { return 3, nil },
		"roles": func(ctx context.Context) (int, error) { return 2, nil },
	})

	for key, f := range results {
		if _, err := f.Await(ctx); err != nil {
			t.Errorf("%s error = %v", key, err)
		}
	}
	waitIdle(t, r)

	records := r.Store().Group("dashboard")
	for _, key := range []string{"users", "roles", "everything"} {
		if rec := records[key]; !rec.Loaded || !rec.Activated {
			t.Errorf("%s = %+v, want loaded", key, rec)
		}
	}
}

func TestRunBatch_InFlightBeforeOperations(t *testing.T) {
	r, _ := newRunner(t, nil)
	ctx := context.Background()

	seen := make(chan state.LoadState, 1)
	results := workflow.RunBatch(ctx, r, workflow.GroupStates, map[string]async.Operation[int]{
		"users": func(ctx context.Context) (int, error) {
			rec, _ := r.Store().Get(workflow.GroupStates, workflow.DefaultAggregateKey)
			seen <- rec
			return 1, nil
		},
	})

	results["users"].Await(ctx)
	if rec := <-seen; !rec.Loading || !rec.Activating {
		t.Errorf("aggregate during operation = %+v, want in flight", rec)
	}
}

func TestTrackBatch_AggregateFailsFirst(t *testing.T) {
	r, _ := newRunner(t, nil)
	ctx := context.Background()

	slow, resolveSlow, _ := async.NewPromise[int]()
	bad, _, rejectBad := async.NewPromise[int]()

	results := workflow.TrackBatch(ctx, r, workflow.GroupStates, map[string]*async.Future[int]{
		"slow": slow,
		"bad":  bad,
	})

	rejectBad(errors.New("boom"))
	results["bad"].Await(ctx)

	deadline, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// the aggregate settles on the first failure while slow is still pending
	for {
		rec := mustGet(t, r, workflow.GroupStates, workflow.DefaultAggregateKey)
		if !rec.Loading {
			if rec.Failed == nil {
				t.Fatalf("aggregate = %+v, want failed", rec)
			}
			break
		}
		select {
		case <-deadline.Done():
			t.Fatal("aggregate never settled")
		case <-time.After(time.Millisecond):
		}
	}

	if rec := mustGet(t, r, workflow.GroupStates, "slow"); !rec.Loading {
		t.Errorf("slow = %+v, want still loading", rec)
	}

	resolveSlow(1)
	waitIdle(t, r)
	if rec := mustGet(t, r, workflow.GroupStates, "slow"); !rec.Loaded {
		t.Errorf("slow = %+v, want loaded", rec)
	}
}
