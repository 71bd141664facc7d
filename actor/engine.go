// File: actor/engine.go
package actor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/protean-io/protean/fault"
)

// Engine manages the lifecycle and message dispatching of actors.
type Engine struct {
	pidCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex
	stopping   atomic.Bool
	logger     zerolog.Logger
}

// NewEngine creates a new actor engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		actors: make(map[string]*process),
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// nextPID generates a unique anonymous process id.
func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor with a generated id.
func (e *Engine) Spawn(props *Props) *PID {
	pid, err := e.spawn(e.nextPID(), props)
	if err != nil {
		return nil
	}
	return pid
}

// SpawnNamed creates and starts a new actor addressed by name. It fails
// only on id collision.
func (e *Engine) SpawnNamed(name string, props *Props) (*PID, error) {
	return e.spawn(&PID{ID: name}, props)
}

func (e *Engine) spawn(pid *PID, props *Props) (*PID, error) {
	if e.stopping.Load() {
		return nil, fmt.Errorf("engine is stopping, cannot spawn %q", pid.ID)
	}

	proc := newProcess(e, pid, props)

	e.mu.Lock()
	if _, exists := e.actors[pid.ID]; exists {
		e.mu.Unlock()
		return nil, &fault.AlreadyExistsError{ID: pid.ID}
	}
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()
	return pid, nil
}

// Lookup resolves a name to a live PID, or nil.
func (e *Engine) Lookup(name string) *PID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if proc, ok := e.actors[name]; ok {
		return proc.pid
	}
	return nil
}

// ActorCount returns the number of live actors.
func (e *Engine) ActorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.actors)
}

// PIDs returns the PIDs of all live actors.
func (e *Engine) PIDs() []*PID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		out = append(out, proc.pid)
	}
	return out
}

// Send delivers a message to the actor identified by pid. Delivery is
// asynchronous, non-blocking and at-most-once; messages from one sender to
// one target arrive in send order.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	_, isStopping := message.(Stopping)
	if e.stopping.Load() && !isStopping {
		return
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if ok {
		proc.deliver(&envelope{Sender: sender, Message: message})
	}
}

// Stop requests an actor to stop processing messages and shut down.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if ok {
		proc.stopOnce.Do(func() { close(proc.stopCh) })
	}
}

// remove drops an actor process from the engine's tracking.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits for them to terminate gracefully.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pids := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()

	e.logger.Info().Int("actors", len(pids)).Msg("engine shutdown initiated")
	for _, pid := range pids {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.ActorCount() == 0 {
			e.logger.Info().Msg("engine shutdown complete")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.logger.Warn().Int("remaining", e.ActorCount()).Msg("engine shutdown timeout")
}
