// File: actor/context.go
package actor

// Receiver is the interface actors implement. Receive processes messages
// sequentially from the actor's mailbox; no two messages for the same actor
// are ever handled concurrently.
type Receiver interface {
	Receive(ctx Context)
}

// Context provides information and capabilities to a Receiver during
// message processing.
type Context interface {
	// Engine returns the engine managing this actor.
	Engine() *Engine
	// Self returns the PID of the actor processing the message.
	Self() *PID
	// Sender returns the PID of the sending actor, if one was supplied.
	Sender() *PID
	// Message returns the message being processed.
	Message() interface{}
	// RequestID returns the Ask correlation id, or "" for plain sends.
	RequestID() string
	// Reply answers an Ask round-trip. It is a no-op for plain sends and
	// never blocks; only the first reply per request is delivered.
	Reply(result interface{})
}

type messageContext struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
	replyCh   chan interface{}
}

func (c *messageContext) Engine() *Engine      { return c.engine }
func (c *messageContext) Self() *PID           { return c.self }
func (c *messageContext) Sender() *PID         { return c.sender }
func (c *messageContext) Message() interface{} { return c.message }
func (c *messageContext) RequestID() string    { return c.requestID }

func (c *messageContext) Reply(result interface{}) {
	if c.replyCh == nil {
		return
	}
	select {
	case c.replyCh <- result:
	default:
	}
}
