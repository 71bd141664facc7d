// File: universal/messages.go
package universal

import (
	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/core"
)

// --- Reserved Control Messages ---
// These are always intercepted by the Universal actor loop before the
// installed behavior sees anything.

// BecomeMsg installs a behavior immediately. When Metadata is non-nil the
// install is also announced to the registry and logged as a transformation.
type BecomeMsg struct {
	Behavior core.Behavior
	Metadata *core.Metadata
}

// TransformViaDescription asks the actor to re-program itself from a free
// text description through the backend chain.
type TransformViaDescription struct {
	Description string
	ReplyTo     *actor.PID
}

// DescribeSelf requests the actor's current metadata. Token is an opaque
// caller-chosen value echoed back so concurrent requests can be told apart.
type DescribeSelf struct {
	ReplyTo *actor.PID
	Token   string
}

// GetState requests a copy of the actor's current state.
type GetState struct {
	ReplyTo *actor.PID
	Token   string
}

// CapabilityRequest asks the actor to perform a side-effecting operation
// through the capability mediator, gated by the actor's own metadata.
type CapabilityRequest struct {
	Op      core.Op
	Args    map[string]interface{}
	ReplyTo *actor.PID
}

// --- Replies ---

// Transformed confirms a successful behavior install.
type Transformed struct {
	ID core.ActorId
}

// TransformFailed reports a transformation that left the actor untouched.
// Reason carries enough structure to distinguish "no backend available",
// "generated code unsafe", "generated code malformed" and "target not
// found"; Err is the underlying taxonomy error.
type TransformFailed struct {
	ID     core.ActorId
	Reason string
	Err    error
}

// SelfDescription answers DescribeSelf.
type SelfDescription struct {
	ID       core.ActorId
	Metadata core.Metadata
	Token    string
}

// StateSnapshot answers GetState with a copy, never a live reference.
type StateSnapshot struct {
	ID    core.ActorId
	State core.State
	Token string
}

// CapabilityResult answers a granted CapabilityRequest.
type CapabilityResult struct {
	ID     core.ActorId
	Op     core.Op
	Result interface{}
}

// CapabilityError answers a denied or failed CapabilityRequest.
type CapabilityError struct {
	ID     core.ActorId
	Op     core.Op
	Reason string
	Err    error
}
