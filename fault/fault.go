// File: fault/fault.go
package fault

import "fmt"

// The error taxonomy shared by every package. External callers are expected
// to distinguish failure classes with errors.As, never by string matching.

// ValidationError reports a proposed behavior that references a forbidden
// symbol or is structurally malformed. The behavior is never installed.
type ValidationError struct {
	Symbol string // offending action kind or symbol, if known
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("validation failed: forbidden symbol %q: %s", e.Symbol, e.Detail)
	}
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

// CapabilityDeniedError reports an operation requested by an actor whose
// metadata does not declare it.
type CapabilityDeniedError struct {
	Caller string
	Op     string
}

func (e *CapabilityDeniedError) Error() string {
	return fmt.Sprintf("capability %q denied for actor %q", e.Op, e.Caller)
}

// BackendUnavailableError reports that no generation backend could serve a
// transform request. With the mock backend as terminal fallback this only
// occurs on configuration error (an override naming an unavailable backend).
type BackendUnavailableError struct {
	Backend string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %q unavailable", e.Backend)
}

// BackendFailureError reports a generation attempt that failed after the
// repair retry was exhausted.
type BackendFailureError struct {
	Backend string
	Reason  string
	Err     error
}

func (e *BackendFailureError) Error() string {
	return fmt.Sprintf("backend %q failed: %s", e.Backend, e.Reason)
}

func (e *BackendFailureError) Unwrap() error { return e.Err }

// TimeoutError reports a bounded wait that elapsed. It is always local to
// the waiting caller; the producer side is not cancelled.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.Op)
}

// NotFoundError reports an unknown actor id or a registry miss.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("actor %q not found", e.ID)
}

// AlreadyExistsError reports a spawn against an id that is already live.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("actor %q already exists", e.ID)
}

// InvalidArgsError reports malformed capability arguments or an op outside
// the mediator's catalogue.
type InvalidArgsError struct {
	Op     string
	Detail string
}

func (e *InvalidArgsError) Error() string {
	return fmt.Sprintf("invalid arguments for %q: %s", e.Op, e.Detail)
}
