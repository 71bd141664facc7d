// File: store/store.go
package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/protean-io/protean/core"
)

// Store bundles the two shared services every actor and mediator needs: the
// Registry (point-in-time snapshot of actor metadata) and the EventLog
// (append-only timeline). Registry state is always derivable by replaying
// the most recent transformed event per actor from the EventLog; the
// registry is a cache, the log is the source of truth for history.
//
// A Store is constructed once at process start and passed by reference;
// there is no implicit global.
type Store struct {
	registry *Registry
	events   *EventLog
	logger   zerolog.Logger
	now      func() int64 // timestamp source in ms, replaceable in tests

	subMu sync.Mutex
	subs  map[chan Entry]struct{}
}

// New creates an empty Store.
func New(logger zerolog.Logger) *Store {
	return &Store{
		registry: newRegistry(),
		events:   newEventLog(),
		logger:   logger.With().Str("component", "store").Logger(),
		now:      func() int64 { return time.Now().UnixMilli() },
		subs:     make(map[chan Entry]struct{}),
	}
}

// Subscribe registers a channel that receives every appended entry from now
// on. Delivery is best effort: a subscriber that cannot keep up misses
// entries rather than blocking writers.
func (s *Store) Subscribe(buffer int) chan Entry {
	ch := make(chan Entry, buffer)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes a channel registered with Subscribe.
func (s *Store) Unsubscribe(ch chan Entry) {
	s.subMu.Lock()
	delete(s.subs, ch)
	s.subMu.Unlock()
}

func (s *Store) notify(e Entry) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Announce upserts the registry entry for id with the current timestamp.
// The full metadata value overwrites whatever was there; there is no merge.
func (s *Store) Announce(id core.ActorId, md core.Metadata) {
	s.registry.put(id, md, s.now())
}

// Log appends an event for id with the current timestamp.
func (s *Store) Log(id core.ActorId, kind core.EventKind, payload map[string]interface{}) {
	e := s.events.append(id, kind, payload, s.now())
	s.logger.Debug().
		Str("actor", string(id)).
		Str("event", string(kind)).
		Msg("event logged")
	s.notify(e)
}

// Lookup returns the registry metadata for id, if present.
func (s *Store) Lookup(id core.ActorId) (core.Metadata, bool) {
	entry, ok := s.registry.get(id)
	if !ok {
		return core.Metadata{}, false
	}
	return entry.Metadata, true
}

// GetContext returns the full registry snapshot, projected to the fields a
// generation prompt needs.
func (s *Store) GetContext() []ContextEntry {
	entries := s.registry.snapshot()
	out := make([]ContextEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ContextEntry{
			ID:           e.ID,
			Type:         e.Metadata.Type,
			Capabilities: e.Metadata.Capabilities,
			Description:  e.Metadata.Description,
		})
	}
	return out
}

// Snapshot returns every live registry entry including timestamps.
func (s *Store) Snapshot() []RegistryEntry {
	return s.registry.snapshot()
}

// GetRecent returns the n most recent events across all actors, newest
// first. Ties on timestamp break on insertion sequence, so repeated calls
// with no intervening writes return the same slice.
func (s *Store) GetRecent(n int) []Entry {
	return s.events.recent(n)
}

// GetBy returns all events for one actor in insertion order.
func (s *Store) GetBy(id core.ActorId) []Entry {
	return s.events.byActor(id)
}

// ContextEntry is one row of the registry projection handed to backends.
type ContextEntry struct {
	ID           core.ActorId `json:"id"`
	Type         string       `json:"type"`
	Capabilities []core.Op    `json:"capabilities"`
	Description  string       `json:"description"`
}
