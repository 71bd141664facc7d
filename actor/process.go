// File: actor/process.go
package actor

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// process is the running instance of an actor: one mailbox drained by one
// goroutine, strictly FIFO.
type process struct {
	engine   *Engine
	pid      *PID
	receiver Receiver
	mailbox  chan *envelope
	props    *Props
	stopCh   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *envelope, props.mailboxSize),
		stopCh:  make(chan struct{}),
	}
}

// deliver enqueues a message without blocking. A full mailbox drops the
// message and logs a warning; at-most-once delivery is the contract.
func (p *process) deliver(env *envelope) {
	_, isStopping := env.Message.(Stopping)
	if p.stopped.Load() && !isStopping {
		return
	}
	select {
	case p.mailbox <- env:
	default:
		p.engine.logger.Warn().
			Str("actor", p.pid.ID).
			Type("message", env.Message).
			Msg("mailbox full, dropping message")
	}
}

// run is the actor's message loop. A panic inside a single Receive
// invocation is recovered and the loop continues with the receiver's prior
// in-memory state; only a stop signal ends the loop.
func (p *process) run() {
	defer func() {
		p.stopped.Store(true)
		if p.receiver != nil {
			p.invoke(&envelope{Message: Stopped{}})
		}
		p.engine.remove(p.pid)
	}()

	p.receiver = p.props.Produce()
	if p.receiver == nil {
		p.engine.logger.Error().Str("actor", p.pid.ID).Msg("producer returned nil receiver")
		return
	}

	p.invoke(&envelope{Message: Started{}})

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) {
				p.invoke(&envelope{Message: Stopping{}})
			}
			return
		case env := <-p.mailbox:
			if _, ok := env.Message.(Stopping); ok {
				if p.stopped.CompareAndSwap(false, true) {
					p.invoke(env)
				}
				return
			}
			p.invoke(env)
		}
	}
}

// invoke runs one Receive call behind a panic barrier.
func (p *process) invoke(env *envelope) {
	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error().
				Str("actor", p.pid.ID).
				Type("message", env.Message).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("recovered panic in Receive")
		}
	}()
	p.receiver.Receive(&messageContext{
		engine:    p.engine,
		self:      p.pid,
		sender:    env.Sender,
		message:   env.Message,
		requestID: env.RequestID,
		replyCh:   env.replyCh,
	})
}
