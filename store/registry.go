// File: store/registry.go
package store

import (
	"sort"
	"sync"

	"github.com/protean-io/protean/core"
)

// RegistryEntry is the last-known metadata for one actor. Exactly one live
// entry exists per id; Announce overwrites it wholesale.
type RegistryEntry struct {
	ID          core.ActorId  `json:"id"`
	Metadata    core.Metadata `json:"metadata"`
	TimestampMs int64         `json:"timestampMs"`
}

// Registry is the concurrent snapshot map. Writers are serialized by the
// lock; readers work on copied values so no caller ever holds a live
// reference into the map.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.ActorId]RegistryEntry
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[core.ActorId]RegistryEntry)}
}

func (r *Registry) put(id core.ActorId, md core.Metadata, ts int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = RegistryEntry{ID: id, Metadata: md, TimestampMs: ts}
}

func (r *Registry) get(id core.ActorId) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// snapshot returns all entries sorted by id for deterministic iteration.
func (r *Registry) snapshot() []RegistryEntry {
	r.mu.RLock()
	out := make([]RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
