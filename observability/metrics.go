package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver turns load and batch events into Prometheus series:
//
//	<ns>_loads_started_total{group}
//	<ns>_loads_completed_total{group,outcome}
//	<ns>_loads_in_flight{group}
//	<ns>_load_duration_seconds{group,outcome}
//	<ns>_batch_failures_total{group}
//
// Other event types are ignored.
type MetricsObserver struct {
	started       *prometheus.CounterVec
	completed     *prometheus.CounterVec
	inFlight      *prometheus.GaugeVec
	duration      *prometheus.HistogramVec
	batchFailures *prometheus.CounterVec
}

// NewMetricsObserver registers its collectors on reg. A nil reg leaves them
// unregistered. Registering twice on the same registry panics, as promauto does.
func NewMetricsObserver(reg prometheus.Registerer, namespace string) *MetricsObserver {
	factory := promauto.With(reg)

	return &MetricsObserver{
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_started_total",
			Help:      "Load attempts started, by group.",
		}, []string{KeyGroup}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_completed_total",
			Help:      "Load attempts settled, by group and outcome.",
		}, []string{KeyGroup, "outcome"}),
		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loads_in_flight",
			Help:      "Load attempts started but not yet settled.",
		}, []string{KeyGroup}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time from load start to settlement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{KeyGroup, "outcome"}),
		batchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_failures_total",
			Help:      "Batches whose aggregate failed, by group.",
		}, []string{KeyGroup}),
	}
}

func (m *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	group, _ := event.Data[KeyGroup].(string)

	switch event.Type {
	case EventLoadStart:
		m.started.WithLabelValues(group).Inc()
		m.inFlight.WithLabelValues(group).Inc()
	case EventLoadSuccess:
		m.settle(group, "success", event)
	case EventLoadFailure:
		m.settle(group, "failure", event)
	case EventBatchFailure:
		m.batchFailures.WithLabelValues(group).Inc()
	}
}

func (m *MetricsObserver) settle(group, outcome string, event Event) {
	m.completed.WithLabelValues(group, outcome).Inc()
	m.inFlight.WithLabelValues(group).Dec()
	if d, ok := event.Data[KeyDuration].(time.Duration); ok {
		m.duration.WithLabelValues(group, outcome).Observe(d.Seconds())
	}
}
