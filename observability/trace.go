package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tailored-agentic-units/loadstate"

// TraceObserver opens one span per load attempt on load.start and closes it
// on the matching load.success or load.failure, correlated by run_id.
type TraceObserver struct {
	tracer trace.Tracer
	mu     sync.Mutex
	spans  map[string]trace.Span
}

// NewTraceObserver creates a TraceObserver using a tracer from tp.
func NewTraceObserver(tp trace.TracerProvider) *TraceObserver {
	return &TraceObserver{
		tracer: tp.Tracer(tracerName),
		spans:  make(map[string]trace.Span),
	}
}

func (o *TraceObserver) OnEvent(ctx context.Context, event Event) {
	runID, _ := event.Data[KeyRunID].(string)
	if runID == "" {
		return
	}

	switch event.Type {
	case EventLoadStart:
		o.start(ctx, runID, event)
	case EventLoadSuccess:
		if span := o.take(runID); span != nil {
			span.SetStatus(codes.Ok, "")
			span.End(trace.WithTimestamp(event.Timestamp))
		}
	case EventLoadFailure:
		if span := o.take(runID); span != nil {
			if err, ok := event.Data[KeyError].(error); ok {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Error, "load failed")
			}
			span.End(trace.WithTimestamp(event.Timestamp))
		}
	}
}

func (o *TraceObserver) start(ctx context.Context, runID string, event Event) {
	group, _ := event.Data[KeyGroup].(string)
	key, _ := event.Data[KeyKey].(string)
	activating, _ := event.Data[KeyActivating].(bool)

	_, span := o.tracer.Start(ctx, fmt.Sprintf("load %s/%s", group, key),
		trace.WithTimestamp(event.Timestamp),
		trace.WithAttributes(
			attribute.String("loadstate.group", group),
			attribute.String("loadstate.key", key),
			attribute.String("loadstate.run_id", runID),
			attribute.Bool("loadstate.activating", activating),
		),
	)

	o.mu.Lock()
	o.spans[runID] = span
	o.mu.Unlock()
}

func (o *TraceObserver) take(runID string) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()

	span, ok := o.spans[runID]
	if !ok {
		return nil
	}
	delete(o.spans, runID)
	return span
}

// Open reports how many spans are waiting for settlement.
func (o *TraceObserver) Open() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}
