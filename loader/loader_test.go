package loader_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tailored-agentic-units/loadstate/async"
	"github.com/tailored-agentic-units/loadstate/loader"
	"github.com/tailored-agentic-units/loadstate/observability"
	"github.com/tailored-agentic-units/loadstate/state"
	"github.com/tailored-agentic-units/loadstate/workflow"
)

func TestNew_InvalidConfig(t *testing.T) {
	cfg := loader.DefaultConfig()
	cfg.HTTP.ExpectedStatus = 7

	if _, err := loader.New(&cfg); err == nil {
		t.Error("New() with invalid config should fail")
	}

	cfg = loader.DefaultConfig()
	cfg.Workflow.Observer = "missing"
	if _, err := loader.New(&cfg); err == nil {
		t.Error("New() with unknown observer should fail")
	}
}

func TestNew_WithContainer(t *testing.T) {
	cfg := loader.DefaultConfig()
	container := state.NewMemoryContainer()

	l, err := loader.New(&cfg, loader.WithContainer(container), loader.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if _, err := workflow.RunAction(ctx, l.Runner(), "save", func(ctx context.Context) (int, error) {
		return 1, nil
	}).Await(ctx); err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}

	rec, ok := container.Load(workflow.GroupActions, "save")
	if !ok || !rec.Loaded {
		t.Errorf("container record = %+v (found %v), want loaded", rec, ok)
	}
	if l.Store().Container() != state.Container(container) {
		t.Error("Store() does not wrap the supplied container")
	}
}

func TestNew_MetricsAndTracing(t *testing.T) {
	cfg := loader.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "test"
	cfg.Tracing.Enabled = true

	registry := prometheus.NewRegistry()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	l, err := loader.New(&cfg,
		loader.WithObserver(observability.NoOpObserver{}),
		loader.WithRegistry(registry),
		loader.WithTracerProvider(tp),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	results := workflow.LoadStates(ctx, l.Runner(), map[string]async.Operation[int]{
		"users": func(ctx context.Context) (int, error) { return 1, nil },
		"roles": func(ctx context.Context) (int, error) { return 0, errors.New("boom") },
	})
	for _, f := range results {
		f.Await(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := l.Runner().Wait(waitCtx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// users, roles, and the aggregate
	if got := gatheredSum(t, l.Gatherer(), "test_loads_started_total"); got != 3 {
		t.Errorf("loads started = %v, want 3", got)
	}
	if got := len(recorder.Ended()); got != 3 {
		t.Errorf("ended spans = %d, want 3", got)
	}
}

// gatheredSum adds up every sample of the counter family name.
func gatheredSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
