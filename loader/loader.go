// Package loader wires a state store, workflow runner, and observers from
// configuration.
//
//	l, err := loader.New(&cfg)
//	users := workflow.Run(ctx, l.Runner(), workflow.GroupStates, "users", fetchUsers)
package loader

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/loadstate/observability"
	"github.com/tailored-agentic-units/loadstate/state"
	"github.com/tailored-agentic-units/loadstate/workflow"
)

// Option overrides a dependency New would otherwise build from config.
type Option func(*options)

type options struct {
	container      state.Container
	observer       observability.Observer
	registry       *prometheus.Registry
	tracerProvider trace.TracerProvider
}

// WithContainer writes records into c instead of a new MemoryContainer.
func WithContainer(c state.Container) Option {
	return func(o *options) { o.container = c }
}

// WithObserver replaces the observer named by Workflow.Observer.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger replaces the observer named by Workflow.Observer with a
// SlogObserver writing to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.observer = observability.NewSlogObserver(logger) }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithTracerProvider uses tp instead of the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// Loader bundles the pieces a caller needs to track loads.
type Loader struct {
	cfg      Config
	store    *state.Store
	runner   *workflow.Runner
	registry *prometheus.Registry
}

// New validates cfg and builds a Loader from it.
func New(cfg *Config, opts ...Option) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.observer
	if base == nil {
		named, err := observability.GetObserver(cfg.Workflow.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		base = named
	}

	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	sinks := []observability.Observer{base}
	if cfg.Metrics.Enabled {
		sinks = append(sinks, observability.NewMetricsObserver(registry, cfg.Metrics.Namespace))
	}
	if cfg.Tracing.Enabled {
		tp := o.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		sinks = append(sinks, observability.NewTraceObserver(tp))
	}
	observer := observability.NewMultiObserver(sinks...)

	store := state.NewStore(o.container, observer)

	runner, err := workflow.New(store, &cfg.Workflow, workflow.WithObserver(observer))
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Loader{
		cfg:      *cfg,
		store:    store,
		runner:   runner,
		registry: registry,
	}, nil
}

// Config returns the configuration the Loader was built from.
func (l *Loader) Config() Config {
	return l.cfg
}

// Store returns the state store.
func (l *Loader) Store() *state.Store {
	return l.store
}

// Runner returns the workflow runner writing into Store.
func (l *Loader) Runner() *workflow.Runner {
	return l.runner
}

// Gatherer returns the registry metrics are exposed from.
func (l *Loader) Gatherer() prometheus.Gatherer {
	return l.registry
}
