// File: store/eventlog.go
package store

import (
	"sort"
	"sync"

	"github.com/protean-io/protean/core"
)

// Entry is one append-only event-log record. Seq is a per-store insertion
// counter used as the deterministic tiebreak when timestamps collide.
type Entry struct {
	Seq         uint64                 `json:"seq"`
	ID          core.ActorId           `json:"id"`
	TimestampMs int64                  `json:"timestampMs"`
	Kind        core.EventKind         `json:"kind"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// EventLog is the append-only timeline. Appends take the write lock only
// long enough to grow the slice; queries copy out under the read lock.
type EventLog struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64
}

func newEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) append(id core.ActorId, kind core.EventKind, payload map[string]interface{}, ts int64) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	e := Entry{
		Seq:         l.seq,
		ID:          id,
		TimestampMs: ts,
		Kind:        kind,
		Payload:     payload,
	}
	l.entries = append(l.entries, e)
	return e
}

// recent returns at most n entries, newest first.
func (l *EventLog) recent(n int) []Entry {
	if n <= 0 {
		return nil
	}

	l.mu.RLock()
	all := make([]Entry, len(l.entries))
	copy(all, l.entries)
	l.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].TimestampMs != all[j].TimestampMs {
			return all[i].TimestampMs > all[j].TimestampMs
		}
		return all[i].Seq > all[j].Seq
	})

	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// byActor returns all entries for one actor in insertion order.
func (l *EventLog) byActor(id core.ActorId) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the number of logged entries.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
