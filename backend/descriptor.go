// File: backend/descriptor.go
package backend

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
)

// Backends never return executable code. They return a Descriptor: a small
// declarative rule set that is validated structurally and then interpreted
// inside the actor loop. "Installing" a behavior is replacing one interface
// value behind one owned slot; no runtime code generation is involved.

// Descriptor is the structured (behavior, metadata) pair a backend produces.
type Descriptor struct {
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Capabilities []core.Op `json:"capabilities,omitempty"`
	Rules        []Rule    `json:"rules,omitempty"`
}

// Rule matches incoming messages by their "op" field. When "*" matches any
// message not claimed by an earlier rule.
type Rule struct {
	When    string   `json:"when"`
	Actions []Action `json:"actions"`
}

// Action is one state transformation. Do is the verb; the validator fails
// closed on any verb outside the allowed set.
type Action struct {
	Do    string      `json:"do"`
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"value,omitempty"`
	By    float64     `json:"by,omitempty"`   // increment step; 0 means 1
	From  string      `json:"from,omitempty"` // message field to copy
}

// Metadata projects the descriptor's claims into installable metadata.
func (d *Descriptor) Metadata() core.Metadata {
	return core.Metadata{
		Type:         d.Type,
		Capabilities: d.Capabilities,
		Description:  d.Description,
	}
}

// ParseDescriptor decodes a raw backend payload. Model output is unreliable
// text, so a failed decode gets one mechanical repair pass (jsonrepair)
// before the payload is rejected as malformed.
func ParseDescriptor(raw string) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal([]byte(raw), &d); err == nil {
		return &d, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, &fault.ValidationError{Detail: fmt.Sprintf("payload is not JSON: %v", err)}
	}
	if err := json.Unmarshal([]byte(repaired), &d); err != nil {
		return nil, &fault.ValidationError{Detail: fmt.Sprintf("payload does not match descriptor shape: %v", err)}
	}
	return &d, nil
}

// Compile turns a validated descriptor into an interpreted Behavior. The
// returned behavior matches messages shaped as map[string]interface{} with
// an "op" field; anything else falls through as a silent no-op.
func Compile(d *Descriptor) core.Behavior {
	rules := make([]Rule, len(d.Rules))
	copy(rules, d.Rules)

	return core.BehaviorFunc(func(id core.ActorId, state core.State, msg core.Message) core.Outcome {
		fields, op := messageOp(msg)
		if op == "" {
			return core.Continue(state)
		}

		for _, rule := range rules {
			if rule.When != op && rule.When != "*" {
				continue
			}
			next := state.Clone()
			for _, action := range rule.Actions {
				applyAction(next, action, fields)
			}
			return core.Continue(next)
		}
		return core.Continue(state)
	})
}

// messageOp extracts the message fields and its "op" discriminator.
func messageOp(msg core.Message) (map[string]interface{}, string) {
	fields, ok := msg.(map[string]interface{})
	if !ok {
		return nil, ""
	}
	op, _ := fields["op"].(string)
	return fields, op
}

func applyAction(state core.State, action Action, msg map[string]interface{}) {
	switch action.Do {
	case "set":
		if action.From != "" {
			if v, ok := msg[action.From]; ok {
				state[action.Key] = v
			}
			return
		}
		state[action.Key] = action.Value

	case "increment":
		step := action.By
		if step == 0 {
			step = 1
		}
		state[action.Key] = asNumber(state[action.Key]) + step

	case "append":
		list, _ := state[action.Key].([]interface{})
		value := action.Value
		if action.From != "" {
			value = msg[action.From]
		}
		state[action.Key] = append(list, value)

	case "merge":
		if m, ok := action.Value.(map[string]interface{}); ok {
			for k, v := range m {
				state[k] = v
			}
		}

	case "remove":
		delete(state, action.Key)

	case "clear":
		for k := range state {
			delete(state, k)
		}
	}
}

func asNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
