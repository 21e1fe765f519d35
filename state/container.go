package state

import (
	"maps"
	"sync"
)

// Container is the caller-owned sink records are written into. The Store only
// ever loads and saves whole records; it never deletes. Implementations must
// be safe for concurrent use if they are read outside the Store.
type Container interface {
	Load(group, key string) (LoadState, bool)
	Save(group, key string, state LoadState)
	Snapshot() map[string]map[string]LoadState
}

// MemoryContainer is a Container backed by nested maps.
type MemoryContainer struct {
	groups map[string]map[string]LoadState
	mu     sync.RWMutex
}

// NewMemoryContainer creates an empty MemoryContainer.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{groups: make(map[string]map[string]LoadState)}
}

func (c *MemoryContainer) Load(group, key string) (LoadState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.groups[group][key]
	return s, ok
}

func (c *MemoryContainer) Save(group, key string, state LoadState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, ok := c.groups[group]
	if !ok {
		records = make(map[string]LoadState)
		c.groups[group] = records
	}
	records[key] = state
}

// Snapshot returns a deep copy of every group.
func (c *MemoryContainer) Snapshot() map[string]map[string]LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]LoadState, len(c.groups))
	for group, records := range c.groups {
		out[group] = maps.Clone(records)
	}
	return out
}
