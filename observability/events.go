package observability

// Event types shared by every emitter, so sinks such as MetricsObserver and
// TraceObserver can react to them without importing the emitting packages.
const (
	// State store
	EventStateCreate EventType = "state.create"
	EventStatePatch  EventType = "state.patch"

	// Single load attempts
	EventLoadStart   EventType = "load.start"
	EventLoadSuccess EventType = "load.success"
	EventLoadFailure EventType = "load.failure"

	// Batches
	EventBatchStart    EventType = "batch.start"
	EventBatchComplete EventType = "batch.complete"
	EventBatchFailure  EventType = "batch.failure"
)

// Data keys used by the event types above.
const (
	KeyGroup      = "group"
	KeyKey        = "key"
	KeyRunID      = "run_id"
	KeyActivating = "activating"
	KeyReloading  = "reloading"
	KeyDuration   = "duration"
	KeyError      = "error"
	KeySize       = "size"
)
