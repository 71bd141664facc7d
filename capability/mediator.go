// File: capability/mediator.go
package capability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
	"github.com/protean-io/protean/store"
	"github.com/protean-io/protean/universal"
	"github.com/protean-io/protean/utils"
)

// Mediator is the trust boundary: the only path through which installed
// behavior may cause a side effect. Behaviors never call side-effecting
// primitives; they request operations by symbolic name, the mediator checks
// the requesting actor's declared capability set, and every grant or denial
// lands in the event log.
type Mediator struct {
	engine      *actor.Engine
	store       *store.Store
	transformer Transformer
	spawner     SpawnFunc
	network     Doer
	logger      zerolog.Logger
}

// Transformer is the generation pipeline behind the ai_transform op.
// Implemented by backend.Chain.
type Transformer interface {
	Transform(ctx context.Context, description string, id core.ActorId) (core.Behavior, core.Metadata, error)
}

// SpawnFunc creates a new actor; it backs the spawn_child op. Injected as a
// function so the mediator does not construct actors itself.
type SpawnFunc func(name string) (core.ActorId, error)

// Doer is the outbound network collaborator.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransformOutput is the ai_transform result: a validated pair the caller
// may later install on a target via apply_transform.
type TransformOutput struct {
	Behavior core.Behavior
	Metadata core.Metadata
}

// NewMediator creates a mediator over the shared collaborators. network may
// be nil, which leaves net_request permanently failing with request_failed.
func NewMediator(engine *actor.Engine, st *store.Store, transformer Transformer, spawner SpawnFunc, network Doer, logger zerolog.Logger) *Mediator {
	return &Mediator{
		engine:      engine,
		store:       st,
		transformer: transformer,
		spawner:     spawner,
		network:     network,
		logger:      logger.With().Str("component", "mediator").Logger(),
	}
}

var httpMethods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"delete": http.MethodDelete,
}

// Execute gates and dispatches one operation on behalf of caller. An op
// outside the caller's declared capability set is never attempted: it logs
// exactly one capability_denied event and returns a denial. A granted op
// logs exactly one capability_used event with summarized arguments before
// dispatch.
func (m *Mediator) Execute(ctx context.Context, op core.Op, args map[string]interface{}, caller core.ActorId) (interface{}, error) {
	if !m.recognized(op) {
		return nil, &fault.InvalidArgsError{Op: string(op), Detail: "unknown_capability"}
	}

	metadata, _ := m.store.Lookup(caller) // registry miss means empty capability set
	if !metadata.Allows(op) {
		m.store.Log(caller, core.EventCapabilityDenied, map[string]interface{}{"op": string(op)})
		m.logger.Warn().Str("caller", string(caller)).Str("op", string(op)).Msg("capability denied")
		return nil, &fault.CapabilityDeniedError{Caller: string(caller), Op: string(op)}
	}

	m.store.Log(caller, core.EventCapabilityUsed, map[string]interface{}{
		"op":   string(op),
		"args": summarizeArgs(args),
	})

	switch op {
	case core.OpSpawnChild:
		return m.spawnChild(args)
	case core.OpNetRequest:
		return m.netRequest(ctx, args)
	case core.OpLog:
		return m.sinkLog(caller, args)
	case core.OpGetContext:
		return m.store.GetContext(), nil
	case core.OpGetRegistry:
		return m.store.Snapshot(), nil
	case core.OpGetHistory:
		return m.history(args)
	case core.OpAITransform:
		return m.aiTransform(ctx, args, caller)
	case core.OpApplyTransform:
		return m.applyTransform(args)
	default:
		return nil, &fault.InvalidArgsError{Op: string(op), Detail: "unknown_capability"}
	}
}

func (m *Mediator) recognized(op core.Op) bool {
	switch op {
	case core.OpSpawnChild, core.OpNetRequest, core.OpLog, core.OpGetContext,
		core.OpGetRegistry, core.OpGetHistory, core.OpAITransform, core.OpApplyTransform:
		return true
	}
	return false
}

func (m *Mediator) spawnChild(args map[string]interface{}) (interface{}, error) {
	if m.spawner == nil {
		return nil, &fault.InvalidArgsError{Op: "spawn_child", Detail: "no spawner configured"}
	}
	name, _ := args["name"].(string)
	id, err := m.spawner(name)
	if err != nil {
		return nil, err
	}
	return id, nil
}

// netRequest performs one outbound call. No retries at this layer; the
// caller decides.
func (m *Mediator) netRequest(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if m.network == nil {
		return nil, fmt.Errorf("request_failed: no network collaborator configured")
	}

	rawMethod, _ := args["method"].(string)
	method, ok := httpMethods[strings.ToLower(rawMethod)]
	if !ok {
		return nil, &fault.InvalidArgsError{Op: "net_request", Detail: fmt.Sprintf("unsupported method %q", rawMethod)}
	}
	url, _ := args["url"].(string)
	if url == "" {
		return nil, &fault.InvalidArgsError{Op: "net_request", Detail: "missing url"}
	}

	var body io.Reader
	if raw, ok := args["body"].(string); ok && raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &fault.InvalidArgsError{Op: "net_request", Detail: err.Error()}
	}

	resp, err := m.network.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request_failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("request_failed: %w", err)
	}
	return string(payload), nil
}

// sinkLog writes to the observability sink. Best effort, bounded, never
// blocks the caller beyond the write itself.
func (m *Mediator) sinkLog(caller core.ActorId, args map[string]interface{}) (interface{}, error) {
	message, _ := args["message"].(string)
	m.logger.Info().Str("caller", string(caller)).Msg(message)
	return "logged", nil
}

func (m *Mediator) history(args map[string]interface{}) (interface{}, error) {
	if id, ok := args["id"].(string); ok && id != "" {
		return m.store.GetBy(core.ActorId(id)), nil
	}
	n := 20
	switch v := args["recent"].(type) {
	case int:
		n = v
	case float64:
		n = int(v)
	}
	return m.store.GetRecent(n), nil
}

func (m *Mediator) aiTransform(ctx context.Context, args map[string]interface{}, caller core.ActorId) (interface{}, error) {
	description, _ := args["description"].(string)
	if description == "" {
		return nil, &fault.InvalidArgsError{Op: "ai_transform", Detail: "missing description"}
	}
	behavior, metadata, err := m.transformer.Transform(ctx, description, caller)
	if err != nil {
		return nil, err
	}
	return TransformOutput{Behavior: behavior, Metadata: metadata}, nil
}

// applyTransform sends Become to the target, fire and forget: success means
// delivered, not installed. Installation confirmation is out of band.
func (m *Mediator) applyTransform(args map[string]interface{}) (interface{}, error) {
	target, _ := args["target"].(string)
	if target == "" {
		return nil, &fault.InvalidArgsError{Op: "apply_transform", Detail: "missing target"}
	}
	behavior, _ := args["behavior"].(core.Behavior)
	if behavior == nil {
		if out, ok := args["transform"].(TransformOutput); ok {
			behavior = out.Behavior
			if _, hasMD := args["metadata"]; !hasMD {
				args["metadata"] = out.Metadata
			}
		}
	}
	if behavior == nil {
		return nil, &fault.InvalidArgsError{Op: "apply_transform", Detail: "missing behavior"}
	}

	pid := m.engine.Lookup(target)
	if pid == nil {
		return nil, &fault.NotFoundError{ID: target}
	}

	msg := universal.BecomeMsg{Behavior: behavior}
	if md, ok := args["metadata"].(core.Metadata); ok {
		msg.Metadata = &md
	}
	m.engine.Send(pid, msg, nil)
	return "delivered", nil
}

// summarizeArgs bounds the audit payload: string arguments longer than the
// cap are truncated with an ellipsis marker before logging.
func summarizeArgs(args map[string]interface{}) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		switch t := v.(type) {
		case string:
			out[k] = utils.Truncate(t, utils.LogArgCap)
		case bool, int, int64, float64:
			out[k] = t
		default:
			out[k] = fmt.Sprintf("%T", v)
		}
	}
	return out
}
