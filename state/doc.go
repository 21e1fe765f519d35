// Package state holds per-key load-state records and the transitions between
// them.
//
// Records live in a caller-owned Container under a two-level path: a group
// ("actions", "states", ...) and a resource key inside that group. The Store
// wraps a Container with read-modify-write patching, lazy creation from the
// default record, and change notifications for UI bindings:
//
//	store := state.NewStore(state.NewMemoryContainer(), observer)
//	cancel := store.Subscribe(func(c state.Change) { render(c.Group, c.Key, c.State) })
//	defer cancel()
//
//	store.Patch("states", "users", state.Start(true))
//	store.Patch("states", "users", state.Succeed())
//
// Records are created on first access and never removed.
package state
