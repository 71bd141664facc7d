// File: capability/mediator_test.go
package capability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
	"github.com/protean-io/protean/store"
	"github.com/protean-io/protean/universal"
	"github.com/protean-io/protean/utils"
)

type fakeTransformer struct {
	calls int
}

func (f *fakeTransformer) Transform(_ context.Context, description string, _ core.ActorId) (core.Behavior, core.Metadata, error) {
	f.calls++
	return core.NoopBehavior(), core.Metadata{Type: "generated", Description: description}, nil
}

type mediatorFixture struct {
	engine      *actor.Engine
	store       *store.Store
	mediator    *Mediator
	transformer *fakeTransformer
	spawned     []string
}

func newFixture(t *testing.T, network Doer) *mediatorFixture {
	t.Helper()
	logger := utils.TestLogger()
	f := &mediatorFixture{
		engine:      actor.NewEngine(logger),
		store:       store.New(logger),
		transformer: &fakeTransformer{},
	}
	t.Cleanup(func() { f.engine.Shutdown(time.Second) })

	f.mediator = NewMediator(f.engine, f.store, f.transformer,
		func(name string) (core.ActorId, error) {
			f.spawned = append(f.spawned, name)
			return core.ActorId(name), nil
		},
		network, logger)
	return f
}

// grant registers caller metadata declaring the given ops.
func (f *mediatorFixture) grant(caller core.ActorId, ops ...core.Op) {
	f.store.Announce(caller, core.Metadata{Type: "test", Capabilities: ops})
}

func eventsOfKind(entries []store.Entry, kind core.EventKind) []store.Entry {
	var out []store.Entry
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestDeniedOpIsNeverAttempted(t *testing.T) {
	f := newFixture(t, nil)

	// Caller has no registry entry at all: empty capability set.
	_, err := f.mediator.Execute(context.Background(), core.OpSpawnChild, map[string]interface{}{"name": "kid"}, "caller")
	require.Error(t, err)
	var denied *fault.CapabilityDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "spawn_child", denied.Op)

	assert.Empty(t, f.spawned, "the underlying effect must not happen")
	byCaller := f.store.GetBy("caller")
	assert.Len(t, eventsOfKind(byCaller, core.EventCapabilityDenied), 1)
	assert.Empty(t, eventsOfKind(byCaller, core.EventCapabilityUsed))
}

func TestGrantedOpRunsAndAuditsOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpSpawnChild)

	result, err := f.mediator.Execute(context.Background(), core.OpSpawnChild, map[string]interface{}{"name": "kid"}, "caller")
	require.NoError(t, err)
	assert.Equal(t, core.ActorId("kid"), result)
	assert.Equal(t, []string{"kid"}, f.spawned)

	byCaller := f.store.GetBy("caller")
	assert.Len(t, eventsOfKind(byCaller, core.EventCapabilityUsed), 1)
	assert.Empty(t, eventsOfKind(byCaller, core.EventCapabilityDenied))
}

func TestUnknownOpIsTypedError(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpSpawnChild)

	_, err := f.mediator.Execute(context.Background(), core.Op("fly"), nil, "caller")
	var invalid *fault.InvalidArgsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "unknown_capability", invalid.Detail)
	assert.Empty(t, f.store.GetBy("caller"), "unknown ops are rejected before any audit entry")
}

func TestAuditArgsAreTruncated(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpLog)

	long := strings.Repeat("x", 200)
	_, err := f.mediator.Execute(context.Background(), core.OpLog, map[string]interface{}{"message": long}, "caller")
	require.NoError(t, err)

	used := eventsOfKind(f.store.GetBy("caller"), core.EventCapabilityUsed)
	require.Len(t, used, 1)
	args := used[0].Payload["args"].(map[string]interface{})
	logged := args["message"].(string)
	assert.True(t, strings.HasSuffix(logged, "…"))
	assert.Equal(t, utils.LogArgCap, len([]rune(logged))-1)
}

func TestNetRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte("pong"))
	}))
	defer ts.Close()

	f := newFixture(t, http.DefaultClient)
	f.grant("caller", core.OpNetRequest)

	result, err := f.mediator.Execute(context.Background(), core.OpNetRequest, map[string]interface{}{
		"method": "post",
		"url":    ts.URL,
		"body":   "ping",
	}, "caller")
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	// Unsupported method: rejected before any call goes out.
	_, err = f.mediator.Execute(context.Background(), core.OpNetRequest, map[string]interface{}{
		"method": "head",
		"url":    ts.URL,
	}, "caller")
	var invalid *fault.InvalidArgsError
	assert.ErrorAs(t, err, &invalid)

	// Connection failures come back wrapped as request_failed.
	_, err = f.mediator.Execute(context.Background(), core.OpNetRequest, map[string]interface{}{
		"method": "get",
		"url":    "http://127.0.0.1:1",
	}, "caller")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request_failed")
}

func TestReadOnlyQueries(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpGetContext, core.OpGetRegistry, core.OpGetHistory)
	f.grant("other", core.OpLog)

	ctx := context.Background()

	result, err := f.mediator.Execute(ctx, core.OpGetContext, nil, "caller")
	require.NoError(t, err)
	assert.Len(t, result.([]store.ContextEntry), 2)

	result, err = f.mediator.Execute(ctx, core.OpGetRegistry, nil, "caller")
	require.NoError(t, err)
	assert.Len(t, result.([]store.RegistryEntry), 2)

	result, err = f.mediator.Execute(ctx, core.OpGetHistory, map[string]interface{}{"recent": 5}, "caller")
	require.NoError(t, err)
	assert.NotEmpty(t, result.([]store.Entry))

	result, err = f.mediator.Execute(ctx, core.OpGetHistory, map[string]interface{}{"id": "caller"}, "caller")
	require.NoError(t, err)
	for _, e := range result.([]store.Entry) {
		assert.Equal(t, core.ActorId("caller"), e.ID)
	}
}

func TestAITransform(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpAITransform)

	result, err := f.mediator.Execute(context.Background(), core.OpAITransform, map[string]interface{}{
		"description": "become a counter",
	}, "caller")
	require.NoError(t, err)

	out := result.(TransformOutput)
	assert.Equal(t, "generated", out.Metadata.Type)
	assert.Equal(t, 1, f.transformer.calls)

	_, err = f.mediator.Execute(context.Background(), core.OpAITransform, nil, "caller")
	var invalid *fault.InvalidArgsError
	assert.ErrorAs(t, err, &invalid)
}

func TestApplyTransformDeliversBecome(t *testing.T) {
	f := newFixture(t, nil)
	f.grant("caller", core.OpApplyTransform)

	deps := universal.Deps{
		Store:             f.store,
		TransformTimeout:  time.Second,
		CapabilityTimeout: time.Second,
		Logger:            utils.TestLogger(),
	}
	targetPID, _, err := universal.Spawn(f.engine, deps, "target")
	require.NoError(t, err)

	md := core.Metadata{Type: "assigned", Description: "installed remotely"}
	result, err := f.mediator.Execute(context.Background(), core.OpApplyTransform, map[string]interface{}{
		"target":   "target",
		"behavior": core.NoopBehavior(),
		"metadata": md,
	}, "caller")
	require.NoError(t, err)
	assert.Equal(t, "delivered", result)

	// Delivery is fire-and-forget; confirm installation out of band.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := f.engine.Ask(ctx, targetPID, universal.DescribeSelf{Token: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, md, reply.(universal.SelfDescription).Metadata)

	_, err = f.mediator.Execute(context.Background(), core.OpApplyTransform, map[string]interface{}{
		"target":   "ghost",
		"behavior": core.NoopBehavior(),
	}, "caller")
	var notFound *fault.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
