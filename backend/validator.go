// File: backend/validator.go
package backend

import (
	"fmt"

	"github.com/protean-io/protean/fault"
)

// Validator inspects the structure of a proposed descriptor before it can
// ever be installed. It walks every rule and action and fails closed: any
// verb outside the allowed set is rejected, whether it is a known-dangerous
// primitive or simply unrecognized. Validation is the only gate; once a
// descriptor passes, the compiled behavior runs inside the actor loop
// exactly like hand-written behavior.
type Validator struct{}

// allowedActions are the pure state transformations the interpreter
// understands. Nothing in this set can spawn, do I/O, import code, or
// re-enter the actor and capability primitives.
var allowedActions = map[string]bool{
	"set":       true,
	"increment": true,
	"append":    true,
	"merge":     true,
	"remove":    true,
	"clear":     true,
}

// forbiddenActions map known-dangerous verbs to a description used in the
// rejection message. Unknown verbs are rejected too; these exist so the
// error names what the generated behavior was trying to do.
var forbiddenActions = map[string]string{
	"exec":       "process execution",
	"spawn":      "process/thread spawning",
	"shell":      "process execution",
	"import":     "dynamic code import",
	"require":    "dynamic code import",
	"eval":       "dynamic code evaluation",
	"send":       "re-entrant actor messaging",
	"become":     "re-entrant behavior install",
	"capability": "re-entrant capability invocation",
	"net":        "raw network access",
	"http":       "raw network access",
	"file":       "raw file access",
	"read":       "raw file access",
	"write":      "raw file access",
	"sys":        "raw system access",
}

// actionsNeedingKey are verbs whose target state key must be present.
var actionsNeedingKey = map[string]bool{
	"set":       true,
	"increment": true,
	"append":    true,
	"remove":    true,
}

// Validate checks a descriptor structurally. The returned error names the
// forbidden symbol so the chain can feed it back into a repair prompt.
func (Validator) Validate(d *Descriptor) error {
	if d == nil {
		return &fault.ValidationError{Detail: "empty descriptor"}
	}
	if d.Type == "" {
		return &fault.ValidationError{Detail: "descriptor has no type"}
	}

	for i, rule := range d.Rules {
		if rule.When == "" {
			return &fault.ValidationError{
				Detail: fmt.Sprintf("rule %d has no match condition", i),
			}
		}
		for _, action := range rule.Actions {
			if why, bad := forbiddenActions[action.Do]; bad {
				return &fault.ValidationError{
					Symbol: action.Do,
					Detail: why + " is only reachable through the capability mediator",
				}
			}
			if !allowedActions[action.Do] {
				return &fault.ValidationError{
					Symbol: action.Do,
					Detail: "unrecognized action verb",
				}
			}
			if actionsNeedingKey[action.Do] && action.Key == "" {
				return &fault.ValidationError{
					Detail: fmt.Sprintf("action %q in rule %q has no target key", action.Do, rule.When),
				}
			}
		}
	}
	return nil
}
