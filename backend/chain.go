// File: backend/chain.go
package backend

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
)

// Chain selects the best available backend and drives the repair-retry
// protocol. Priority is fixed (interactive tool > local model > remote API >
// deterministic mock) unless a manual override names a backend explicitly.
// The mock is always available, so Transform only fails on a misconfigured
// override or on generation that stays invalid after one repair attempt.
type Chain struct {
	backends  []Backend // priority order
	validator Validator
	gatherer  *Gatherer
	logger    zerolog.Logger

	mu       sync.RWMutex
	override string // "" means auto-detect
}

// NewChain builds a chain over backends in priority order. gatherer may be
// nil; transforms then run without system context.
func NewChain(backends []Backend, gatherer *Gatherer, logger zerolog.Logger) *Chain {
	return &Chain{
		backends:  backends,
		validator: Validator{},
		gatherer:  gatherer,
		logger:    logger.With().Str("component", "backend-chain").Logger(),
	}
}

// SetOverride pins backend selection to the named backend. An empty name
// restores auto-detection.
func (c *Chain) SetOverride(name string) {
	c.mu.Lock()
	c.override = name
	c.mu.Unlock()
}

// Select returns the backend that will serve the next transform.
func (c *Chain) Select() (Backend, error) {
	c.mu.RLock()
	override := c.override
	c.mu.RUnlock()

	if override != "" {
		for _, b := range c.backends {
			if b.Name() != override {
				continue
			}
			if !b.Available() {
				return nil, &fault.BackendUnavailableError{Backend: override}
			}
			return b, nil
		}
		return nil, &fault.BackendUnavailableError{Backend: override}
	}

	for _, b := range c.backends {
		if b.Available() {
			return b, nil
		}
	}
	return nil, &fault.BackendUnavailableError{Backend: "auto"}
}

// Backends lists the chain's backends with their availability, priority
// order preserved.
func (c *Chain) Backends() []Status {
	out := make([]Status, 0, len(c.backends))
	for _, b := range c.backends {
		out = append(out, Status{Name: b.Name(), Available: b.Available()})
	}
	return out
}

// Status reports one backend's availability.
type Status struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Transform turns a free-text description into a validated (behavior,
// metadata) pair for the given actor. If the backend's output fails to
// parse or fails validation, the same backend gets exactly one repair
// attempt with the rejection reason embedded in the prompt.
func (c *Chain) Transform(ctx context.Context, description string, id core.ActorId) (core.Behavior, core.Metadata, error) {
	b, err := c.Select()
	if err != nil {
		return nil, core.Metadata{}, err
	}

	req := Request{Description: description, ActorID: id}
	if c.gatherer != nil {
		req.Context = c.gatherer.Gather(ctx, description)
	}

	result, firstErr := c.attempt(ctx, b, req)
	if firstErr == nil {
		return result.Behavior, result.Metadata, nil
	}

	c.logger.Warn().
		Str("backend", b.Name()).
		Str("actor", string(id)).
		Err(firstErr).
		Msg("transform rejected, issuing repair attempt")

	req.RepairReason = firstErr.Error()
	result, repairErr := c.attempt(ctx, b, req)
	if repairErr == nil {
		return result.Behavior, result.Metadata, nil
	}

	return nil, core.Metadata{}, &fault.BackendFailureError{
		Backend: b.Name(),
		Reason:  repairErr.Error(),
		Err:     repairErr,
	}
}

// attempt runs one generate-parse-validate-compile pass.
func (c *Chain) attempt(ctx context.Context, b Backend, req Request) (*Result, error) {
	raw, err := b.Transform(ctx, req)
	if err != nil {
		return nil, err
	}

	d, err := ParseDescriptor(raw)
	if err != nil {
		return nil, err
	}
	if err := c.validator.Validate(d); err != nil {
		return nil, err
	}

	return &Result{
		Behavior:   Compile(d),
		Metadata:   d.Metadata(),
		Descriptor: d,
		Backend:    b.Name(),
	}, nil
}
