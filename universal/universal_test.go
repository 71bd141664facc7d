// File: universal/universal_test.go
package universal

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
	"github.com/protean-io/protean/store"
	"github.com/protean-io/protean/utils"
)

// scriptedTransformer returns a canned (behavior, metadata) pair, or a
// canned error, without touching any backend.
type scriptedTransformer struct {
	behavior core.Behavior
	metadata core.Metadata
	err      error
	calls    int
}

func (s *scriptedTransformer) Transform(_ context.Context, _ string, _ core.ActorId) (core.Behavior, core.Metadata, error) {
	s.calls++
	if s.err != nil {
		return nil, core.Metadata{}, s.err
	}
	return s.behavior, s.metadata, nil
}

type scriptedMediator struct {
	result interface{}
	err    error
	lastOp core.Op
}

func (s *scriptedMediator) Execute(_ context.Context, op core.Op, _ map[string]interface{}, _ core.ActorId) (interface{}, error) {
	s.lastOp = op
	return s.result, s.err
}

// counterBehavior treats map messages with op=increment as a counter tick.
func counterBehavior() core.Behavior {
	return core.BehaviorFunc(func(_ core.ActorId, state core.State, msg core.Message) core.Outcome {
		m, ok := msg.(map[string]interface{})
		if !ok || m["op"] != "increment" {
			return core.Continue(state)
		}
		next := state.Clone()
		count, _ := next["count"].(int)
		next["count"] = count + 1
		return core.Continue(next)
	})
}

func panickingBehavior() core.Behavior {
	return core.BehaviorFunc(func(_ core.ActorId, _ core.State, _ core.Message) core.Outcome {
		panic("behavior blew up")
	})
}

type universalFixture struct {
	engine      *actor.Engine
	store       *store.Store
	transformer *scriptedTransformer
	mediator    *scriptedMediator
	deps        Deps
}

func newFixture(t *testing.T) *universalFixture {
	t.Helper()
	logger := utils.TestLogger()
	f := &universalFixture{
		engine:      actor.NewEngine(logger),
		store:       store.New(logger),
		transformer: &scriptedTransformer{behavior: core.NoopBehavior()},
		mediator:    &scriptedMediator{},
	}
	f.deps = Deps{
		Store:             f.store,
		Transformer:       f.transformer,
		Mediator:          f.mediator,
		TransformTimeout:  time.Second,
		CapabilityTimeout: time.Second,
		Logger:            logger,
	}
	t.Cleanup(func() { f.engine.Shutdown(time.Second) })
	return f
}

func (f *universalFixture) ask(t *testing.T, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := f.engine.Ask(ctx, pid, msg, nil)
	require.NoError(t, err)
	return reply
}

func (f *universalFixture) getState(t *testing.T, pid *actor.PID) core.State {
	t.Helper()
	return f.ask(t, pid, GetState{Token: "t"}).(StateSnapshot).State
}

func TestSpawnDoesNotRegister(t *testing.T) {
	f := newFixture(t)

	pid, id, err := Spawn(f.engine, f.deps, "blank")
	require.NoError(t, err)
	require.NotNil(t, pid)
	assert.Equal(t, core.ActorId("blank"), id)

	// Flush the mailbox so the spawned event is definitely logged.
	f.ask(t, pid, GetState{Token: "t"})

	_, ok := f.store.Lookup(id)
	assert.False(t, ok, "registry learns about an actor on first transform, not at spawn")

	byActor := f.store.GetBy(id)
	require.Len(t, byActor, 1)
	assert.Equal(t, core.EventSpawned, byActor[0].Kind)
}

func TestSpawnGeneratesID(t *testing.T) {
	f := newFixture(t)

	_, id, err := Spawn(f.engine, f.deps, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(id), "universal-"))

	_, _, err = Spawn(f.engine, f.deps, "taken")
	require.NoError(t, err)
	_, _, err = Spawn(f.engine, f.deps, "taken")
	var exists *fault.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestBecomeInstallsBehaviorAndMetadata(t *testing.T) {
	f := newFixture(t)
	pid, id, err := Spawn(f.engine, f.deps, "worker")
	require.NoError(t, err)

	md := core.Metadata{Type: "counter", Capabilities: []core.Op{core.OpLog}, Description: "counts"}
	reply := f.ask(t, pid, BecomeMsg{Behavior: counterBehavior(), Metadata: &md})
	assert.Equal(t, Transformed{ID: id}, reply)

	got, ok := f.store.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, md, got)

	desc := f.ask(t, pid, DescribeSelf{Token: "t"}).(SelfDescription)
	assert.Equal(t, md, desc.Metadata)
}

func TestCounterCountsToTwo(t *testing.T) {
	f := newFixture(t)
	pid, _, err := Spawn(f.engine, f.deps, "counter")
	require.NoError(t, err)
	f.ask(t, pid, BecomeMsg{Behavior: counterBehavior()})

	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)
	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	state := f.getState(t, pid)
	assert.Equal(t, 2, state["count"])
}

func TestLastInstallWins(t *testing.T) {
	f := newFixture(t)
	pid, _, err := Spawn(f.engine, f.deps, "flip")
	require.NoError(t, err)

	echo := core.BehaviorFunc(func(_ core.ActorId, state core.State, msg core.Message) core.Outcome {
		next := state.Clone()
		next["last"] = fmt.Sprint(msg)
		return core.Continue(next)
	})

	f.ask(t, pid, BecomeMsg{Behavior: counterBehavior(), Metadata: &core.Metadata{Type: "counter"}})
	f.ask(t, pid, BecomeMsg{Behavior: echo, Metadata: &core.Metadata{Type: "echo"}})

	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	state := f.getState(t, pid)
	assert.NotContains(t, state, "count", "the earlier behavior must not see messages after replacement")
	assert.Contains(t, state, "last")

	desc := f.ask(t, pid, DescribeSelf{Token: "t"}).(SelfDescription)
	assert.Equal(t, "echo", desc.Metadata.Type)
}

func TestTransformViaDescriptionInstalls(t *testing.T) {
	f := newFixture(t)
	f.transformer.behavior = counterBehavior()
	f.transformer.metadata = core.Metadata{Type: "counter", Description: "counts things"}

	pid, id, err := Spawn(f.engine, f.deps, "goalie")
	require.NoError(t, err)

	reply := f.ask(t, pid, TransformViaDescription{Description: "count things"})
	assert.Equal(t, Transformed{ID: id}, reply)
	assert.Equal(t, 1, f.transformer.calls)

	md, ok := f.store.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "counter", md.Type)

	var kinds []core.EventKind
	for _, e := range f.store.GetBy(id) {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []core.EventKind{core.EventSpawned, core.EventGoalReceived, core.EventTransformed}, kinds)
}

func TestFailedTransformLeavesActorUntouched(t *testing.T) {
	f := newFixture(t)
	pid, id, err := Spawn(f.engine, f.deps, "stuck")
	require.NoError(t, err)

	// Install a counter first, then make the transformer fail.
	f.ask(t, pid, BecomeMsg{Behavior: counterBehavior(), Metadata: &core.Metadata{Type: "counter"}})
	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	f.transformer.err = &fault.BackendFailureError{Backend: "mock", Reason: "generated code unsafe"}

	reply := f.ask(t, pid, TransformViaDescription{Description: "become dangerous"})
	failedReply, isFailed := reply.(TransformFailed)
	require.True(t, isFailed)
	assert.Equal(t, id, failedReply.ID)
	var bf *fault.BackendFailureError
	assert.ErrorAs(t, failedReply.Err, &bf)

	// Behavior, state and registry entry survive the failed attempt.
	state := f.getState(t, pid)
	assert.Equal(t, 1, state["count"])
	md, ok := f.store.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "counter", md.Type)

	failed := false
	for _, e := range f.store.GetBy(id) {
		if e.Kind == core.EventTransformFailed {
			failed = true
			assert.Contains(t, e.Payload["reason"], "generated code unsafe")
		}
	}
	assert.True(t, failed)
}

func TestBehaviorPanicKeepsPriorState(t *testing.T) {
	f := newFixture(t)
	pid, id, err := Spawn(f.engine, f.deps, "fragile")
	require.NoError(t, err)

	f.ask(t, pid, BecomeMsg{Behavior: counterBehavior()})
	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	f.ask(t, pid, BecomeMsg{Behavior: panickingBehavior()})
	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	// Still responsive, state preserved from before the panic.
	state := f.getState(t, pid)
	assert.Equal(t, 1, state["count"])

	panicked := false
	for _, e := range f.store.GetBy(id) {
		if e.Kind == core.EventBehaviorPanic {
			panicked = true
		}
	}
	assert.True(t, panicked)
}

func TestStateSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	pid, _, err := Spawn(f.engine, f.deps, "private")
	require.NoError(t, err)
	f.ask(t, pid, BecomeMsg{Behavior: counterBehavior()})
	f.engine.Send(pid, map[string]interface{}{"op": "increment"}, nil)

	snapshot := f.getState(t, pid)
	snapshot["count"] = 99

	assert.Equal(t, 1, f.getState(t, pid)["count"], "mutating a snapshot must not reach the actor")
}

func TestCapabilityRequestRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.mediator.result = "logged"

	pid, id, err := Spawn(f.engine, f.deps, "asker")
	require.NoError(t, err)

	reply := f.ask(t, pid, CapabilityRequest{Op: core.OpLog, Args: map[string]interface{}{"message": "hi"}})
	result := reply.(CapabilityResult)
	assert.Equal(t, id, result.ID)
	assert.Equal(t, core.OpLog, result.Op)
	assert.Equal(t, "logged", result.Result)
	assert.Equal(t, core.OpLog, f.mediator.lastOp)

	f.mediator.err = &fault.CapabilityDeniedError{Caller: string(id), Op: "spawn_child"}
	reply = f.ask(t, pid, CapabilityRequest{Op: core.OpSpawnChild})
	capErr, isErr := reply.(CapabilityError)
	require.True(t, isErr)
	assert.Equal(t, core.OpSpawnChild, capErr.Op)
	var denied *fault.CapabilityDeniedError
	assert.ErrorAs(t, capErr.Err, &denied)
}
