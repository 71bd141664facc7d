// File: core/core.go
package core

// ActorId is a process-wide-unique symbolic name. It doubles as the mailbox
// address, the registry key and the event-log key.
type ActorId string

// Message is any value delivered through an actor's mailbox. Control
// messages are intercepted by the Universal actor loop; everything else is
// forwarded to the installed Behavior.
type Message interface{}

// State is the actor's private key-value store. It is exclusively owned by
// its actor and only ever leaves the actor loop as a copy.
type State map[string]interface{}

// Clone returns a shallow copy of the state map. Values are treated as
// immutable by convention; behaviors replace values rather than mutate them.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Op names a side-effecting operation an actor may be permitted to request.
type Op string

const (
	OpSpawnChild     Op = "spawn_child"
	OpNetRequest     Op = "net_request"
	OpLog            Op = "log"
	OpGetContext     Op = "get_context"
	OpGetRegistry    Op = "get_registry"
	OpGetHistory     Op = "get_history"
	OpAITransform    Op = "ai_transform"
	OpApplyTransform Op = "apply_transform"
)

// Metadata declares what an actor claims to be and which operations it is
// permitted to request. It is produced alongside every Behavior and the two
// are always installed together.
type Metadata struct {
	Type         string   `json:"type"`
	Capabilities []Op     `json:"capabilities"`
	Description  string   `json:"description"`
}

// Allows reports whether the metadata's capability set contains op.
func (m Metadata) Allows(op Op) bool {
	for _, c := range m.Capabilities {
		if c == op {
			return true
		}
	}
	return false
}

// EventKind tags an event-log entry. The set is open: new kinds may be
// logged without any schema change.
type EventKind string

const (
	EventSpawned          EventKind = "spawned"
	EventTransformed      EventKind = "transformed"
	EventTransformFailed  EventKind = "transform_failed"
	EventCapabilityUsed   EventKind = "capability_used"
	EventCapabilityDenied EventKind = "capability_denied"
	EventGoalReceived     EventKind = "goal_received"
	EventBehaviorPanic    EventKind = "behavior_panic"
)

// Behavior is the message-handling logic installed in an actor. It is an
// opaque unit of polymorphic dispatch owned exclusively by the actor that
// holds it; replacing it is atomic from any observer's point of view.
type Behavior interface {
	Handle(id ActorId, state State, msg Message) Outcome
}

// BehaviorFunc adapts a plain function to the Behavior interface.
type BehaviorFunc func(id ActorId, state State, msg Message) Outcome

func (f BehaviorFunc) Handle(id ActorId, state State, msg Message) Outcome {
	return f(id, state, msg)
}

// Outcome is the result of one behavior invocation: either keep the current
// behavior with a new state, or replace both behavior and state.
type Outcome struct {
	Next     Behavior // nil means keep the current behavior
	State    State
	replaced bool
}

// Continue keeps the current behavior and replaces the state.
func Continue(state State) Outcome {
	return Outcome{State: state}
}

// Become replaces both behavior and state.
func Become(next Behavior, state State) Outcome {
	return Outcome{Next: next, State: state, replaced: true}
}

// Replaced reports whether the outcome installs a new behavior.
func (o Outcome) Replaced() bool { return o.replaced }

// NoopBehavior is the default behavior installed at spawn: every message is
// a silent no-op that keeps the state unchanged.
func NoopBehavior() Behavior {
	return BehaviorFunc(func(_ ActorId, state State, _ Message) Outcome {
		return Continue(state)
	})
}
