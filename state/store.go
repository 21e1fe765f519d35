package state

import (
	"context"
	"sync"

	"github.com/tailored-agentic-units/loadstate/observability"
)

// Change describes one write to a record.
type Change struct {
	Group string
	Key   string
	State LoadState
}

// Store patches records inside a Container. Each Ensure or Patch call is an
// atomic read-modify-write with respect to other calls on the same Store.
type Store struct {
	container Container
	observer  observability.Observer

	mu sync.Mutex

	subMu       sync.RWMutex
	subscribers map[uint64]func(Change)
	nextSub     uint64
}

// NewStore wraps container. A nil container gets a fresh MemoryContainer and
// a nil observer becomes NoOpObserver.
func NewStore(container Container, observer observability.Observer) *Store {
	if container == nil {
		container = NewMemoryContainer()
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Store{
		container:   container,
		observer:    observer,
		subscribers: make(map[uint64]func(Change)),
	}
}

// Container returns the wrapped container.
func (s *Store) Container() Container {
	return s.container
}

// Ensure returns the record at (group, key), creating it from Default when
// it does not exist yet. Repeated calls create it only once.
func (s *Store) Ensure(group, key string) LoadState {
	s.mu.Lock()
	rec, created := s.ensureLocked(group, key)
	s.mu.Unlock()

	if created {
		s.emitCreate(group, key)
		s.notify(Change{Group: group, Key: key, State: rec})
	}
	return rec
}

// Patch applies patches over the record at (group, key), creating it from
// Default first when needed, saves it, and returns the result.
func (s *Store) Patch(group, key string, patches ...Patch) LoadState {
	s.mu.Lock()
	rec, created := s.ensureLocked(group, key)
	for _, p := range patches {
		p(&rec)
	}
	s.container.Save(group, key, rec)
	s.mu.Unlock()

	if created {
		s.emitCreate(group, key)
	}

	observability.Emit(context.Background(), s.observer, observability.Event{
		Type:   observability.EventStatePatch,
		Level:  observability.LevelVerbose,
		Source: "state.Store",
		Data: map[string]any{
			observability.KeyGroup: group,
			observability.KeyKey:   key,
			"patches":              len(patches),
		},
	})

	s.notify(Change{Group: group, Key: key, State: rec})
	return rec
}

// Get returns the record at (group, key) without creating it.
func (s *Store) Get(group, key string) (LoadState, bool) {
	return s.container.Load(group, key)
}

// Group returns a copy of every record in group.
func (s *Store) Group(group string) map[string]LoadState {
	records, ok := s.container.Snapshot()[group]
	if !ok {
		return map[string]LoadState{}
	}
	return records
}

// Snapshot returns a copy of every record in every group.
func (s *Store) Snapshot() map[string]map[string]LoadState {
	return s.container.Snapshot()
}

// Subscribe registers fn to receive every change made through the Store and
// returns a function that removes it. fn runs on the goroutine that made the
// change, after the write; changes to different keys from different
// goroutines may arrive in any order.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) ensureLocked(group, key string) (LoadState, bool) {
	if rec, ok := s.container.Load(group, key); ok {
		return rec, false
	}

	rec := Default()
	s.container.Save(group, key, rec)
	return rec, true
}

func (s *Store) emitCreate(group, key string) {
	observability.Emit(context.Background(), s.observer, observability.Event{
		Type:   observability.EventStateCreate,
		Level:  observability.LevelVerbose,
		Source: "state.Store",
		Data: map[string]any{
			observability.KeyGroup: group,
			observability.KeyKey:   key,
		},
	})
}

func (s *Store) notify(change Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}
