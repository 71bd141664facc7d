// File: backend/backend.go
package backend

import (
	"context"

	"github.com/protean-io/protean/core"
)

// Request carries everything a backend needs to turn a description into a
// descriptor payload.
type Request struct {
	Description  string
	Context      string       // gathered system context, "" for pure creation
	ActorID      core.ActorId // the actor being transformed
	RepairReason string       // non-empty on the single repair retry
}

// Result is a validated, installable (behavior, metadata) pair plus the
// descriptor it was compiled from and the backend that produced it.
type Result struct {
	Behavior   core.Behavior
	Metadata   core.Metadata
	Descriptor *Descriptor
	Backend    string
}

// Backend is one pluggable generator. Transform returns the raw descriptor
// payload; parsing, validation and compilation happen in the chain so every
// backend shares the same repair protocol.
type Backend interface {
	Name() string
	Available() bool
	Transform(ctx context.Context, req Request) (string, error)
}
