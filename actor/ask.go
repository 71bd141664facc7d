// File: actor/ask.go
package actor

import (
	"context"

	"github.com/google/uuid"

	"github.com/protean-io/protean/fault"
)

// Ask sends a message and waits for a correlated reply with a bounded
// timeout supplied via ctx. The target answers through Context.Reply. A
// timeout is local to the caller: it does not cancel whatever the target
// started on its side.
func (e *Engine) Ask(ctx context.Context, pid *PID, message interface{}, sender *PID) (interface{}, error) {
	if pid == nil {
		return nil, &fault.NotFoundError{ID: "<nil>"}
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return nil, &fault.NotFoundError{ID: pid.ID}
	}

	replyCh := make(chan interface{}, 1)
	proc.deliver(&envelope{
		Sender:    sender,
		Message:   message,
		RequestID: uuid.NewString(),
		replyCh:   replyCh,
	})

	select {
	case result := <-replyCh:
		if err, isErr := result.(error); isErr {
			return nil, err
		}
		return result, nil
	case <-ctx.Done():
		return nil, &fault.TimeoutError{Op: "ask " + pid.ID}
	}
}
