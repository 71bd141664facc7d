// File: universal/universal.go
package universal

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/store"
)

// Transformer turns a free-text description into a validated (behavior,
// metadata) pair. Implemented by backend.Chain.
type Transformer interface {
	Transform(ctx context.Context, description string, id core.ActorId) (core.Behavior, core.Metadata, error)
}

// Mediator gates side-effecting operations behind the caller's declared
// capability set. Implemented by capability.Mediator.
type Mediator interface {
	Execute(ctx context.Context, op core.Op, args map[string]interface{}, caller core.ActorId) (interface{}, error)
}

// Deps are the collaborators shared by every Universal actor. The store is
// the only resource ever touched by more than one actor; everything else an
// actor owns exclusively.
type Deps struct {
	Store             *store.Store
	Transformer       Transformer
	Mediator          Mediator
	TransformTimeout  time.Duration // backend round-trip bound
	CapabilityTimeout time.Duration // mediator round-trip bound
	MailboxSize       int           // 0 means the engine default
	Logger            zerolog.Logger
}

// Universal is the hot-swappable actor: one mailbox, one behavior slot, one
// state value, one metadata value. Every field is owned by the actor's
// single processing goroutine; no lock is needed and none is taken.
type Universal struct {
	id       core.ActorId
	behavior core.Behavior
	state    core.State
	metadata core.Metadata
	deps     Deps
	logger   zerolog.Logger
}

// NewProducer creates a producer for a Universal actor with the default
// no-op behavior, empty state and empty metadata.
func NewProducer(id core.ActorId, deps Deps) actor.Producer {
	return func() actor.Receiver {
		return &Universal{
			id:       id,
			behavior: core.NoopBehavior(),
			state:    core.State{},
			deps:     deps,
			logger:   deps.Logger.With().Str("actor", string(id)).Logger(),
		}
	}
}

// Spawn creates a Universal actor addressed by id. An empty id gets a
// generated one. The only failure mode is an id collision. Spawning does
// not register: the registry first learns about an actor on its first
// transformation.
func Spawn(engine *actor.Engine, deps Deps, id string) (*actor.PID, core.ActorId, error) {
	if id == "" {
		id = "universal-" + uuid.NewString()[:8]
	}
	actorID := core.ActorId(id)
	props := actor.NewProps(NewProducer(actorID, deps)).WithMailboxSize(deps.MailboxSize)
	pid, err := engine.SpawnNamed(id, props)
	if err != nil {
		return nil, "", err
	}
	return pid, actorID, nil
}

// Receive intercepts the reserved control messages and forwards everything
// else to the installed behavior.
func (u *Universal) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		u.deps.Store.Log(u.id, core.EventSpawned, nil)

	case BecomeMsg:
		u.handleBecome(ctx, msg)

	case TransformViaDescription:
		u.handleTransform(ctx, msg)

	case DescribeSelf:
		u.reply(ctx, msg.ReplyTo, SelfDescription{ID: u.id, Metadata: u.metadata, Token: msg.Token})

	case GetState:
		u.reply(ctx, msg.ReplyTo, StateSnapshot{ID: u.id, State: u.state.Clone(), Token: msg.Token})

	case CapabilityRequest:
		u.handleCapability(ctx, msg)

	case actor.Stopping, actor.Stopped:

	default:
		u.dispatch(msg)
	}
}

// handleBecome installs a behavior handed over directly, without the
// backend pipeline. The install is atomic: behavior and state are replaced
// inside the single processing goroutine, so no message is ever handled
// against a half-installed behavior.
func (u *Universal) handleBecome(ctx actor.Context, msg BecomeMsg) {
	if msg.Behavior == nil {
		u.reply(ctx, nil, TransformFailed{ID: u.id, Reason: "become carried no behavior"})
		return
	}
	u.behavior = msg.Behavior
	if msg.Metadata != nil {
		u.metadata = *msg.Metadata
		u.deps.Store.Announce(u.id, u.metadata)
		u.deps.Store.Log(u.id, core.EventTransformed, map[string]interface{}{
			"type":         u.metadata.Type,
			"capabilities": u.metadata.Capabilities,
			"description":  u.metadata.Description,
			"via":          "become",
		})
	}
	u.reply(ctx, nil, Transformed{ID: u.id})
}

// handleTransform drives the description → backend → validate → install
// pipeline. On failure the current behavior and state stay untouched.
func (u *Universal) handleTransform(ctx actor.Context, msg TransformViaDescription) {
	u.deps.Store.Log(u.id, core.EventGoalReceived, map[string]interface{}{
		"description": msg.Description,
	})

	tctx, cancel := context.WithTimeout(context.Background(), u.deps.TransformTimeout)
	defer cancel()

	behavior, metadata, err := u.deps.Transformer.Transform(tctx, msg.Description, u.id)
	if err != nil {
		u.logger.Warn().Err(err).Msg("transformation failed")
		u.deps.Store.Log(u.id, core.EventTransformFailed, map[string]interface{}{
			"description": msg.Description,
			"reason":      err.Error(),
		})
		u.reply(ctx, msg.ReplyTo, TransformFailed{ID: u.id, Reason: err.Error(), Err: err})
		return
	}

	u.behavior = behavior
	u.metadata = metadata
	u.deps.Store.Announce(u.id, metadata)
	u.deps.Store.Log(u.id, core.EventTransformed, map[string]interface{}{
		"type":         metadata.Type,
		"capabilities": metadata.Capabilities,
		"description":  metadata.Description,
	})
	u.logger.Info().Str("type", metadata.Type).Msg("behavior installed")
	u.reply(ctx, msg.ReplyTo, Transformed{ID: u.id})
}

// handleCapability delegates to the mediator with this actor as the caller.
func (u *Universal) handleCapability(ctx actor.Context, msg CapabilityRequest) {
	cctx, cancel := context.WithTimeout(context.Background(), u.deps.CapabilityTimeout)
	defer cancel()

	result, err := u.deps.Mediator.Execute(cctx, msg.Op, msg.Args, u.id)
	if err != nil {
		u.reply(ctx, msg.ReplyTo, CapabilityError{ID: u.id, Op: msg.Op, Reason: err.Error(), Err: err})
		return
	}
	u.reply(ctx, msg.ReplyTo, CapabilityResult{ID: u.id, Op: msg.Op, Result: result})
}

// dispatch forwards a user message to the installed behavior. A panic in
// the behavior body is caught here: it is logged as a local failure and the
// actor continues with its prior state and behavior.
func (u *Universal) dispatch(msg core.Message) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("behavior panicked, keeping prior state")
			u.deps.Store.Log(u.id, core.EventBehaviorPanic, map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
		}
	}()

	outcome := u.behavior.Handle(u.id, u.state, msg)
	if outcome.Replaced() {
		if outcome.Next == nil {
			// A behavior that "becomes nil" is a contract violation; drop
			// the install but keep the state change.
			u.logger.Warn().Msg("behavior outcome replaced with nil, ignoring install")
		} else {
			u.behavior = outcome.Next
		}
	}
	if outcome.State != nil {
		u.state = outcome.State
	}
}

// reply answers through the Ask channel when the message arrived as an Ask,
// otherwise through the caller-supplied reply address.
func (u *Universal) reply(ctx actor.Context, to *actor.PID, msg interface{}) {
	if ctx.RequestID() != "" {
		ctx.Reply(msg)
		return
	}
	if to != nil {
		ctx.Engine().Send(to, msg, ctx.Self())
	}
}
