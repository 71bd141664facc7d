// File: backend/validator_test.go
package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protean-io/protean/fault"
)

func TestValidateAcceptsPureRules(t *testing.T) {
	d := &Descriptor{
		Type: "counter",
		Rules: []Rule{
			{When: "increment", Actions: []Action{{Do: "increment", Key: "count"}}},
			{When: "reset", Actions: []Action{{Do: "set", Key: "count", Value: 0}}},
			{When: "*", Actions: []Action{{Do: "clear"}}},
		},
	}
	assert.NoError(t, Validator{}.Validate(d))
}

func TestValidateRejectsForbiddenSymbol(t *testing.T) {
	for _, verb := range []string{"exec", "import", "eval", "send", "become", "capability", "file"} {
		d := &Descriptor{
			Type:  "rogue",
			Rules: []Rule{{When: "*", Actions: []Action{{Do: verb, Key: "x"}}}},
		}
		err := Validator{}.Validate(d)
		require.Error(t, err, verb)

		var verr *fault.ValidationError
		require.ErrorAs(t, err, &verr)
		// The error names the forbidden symbol so the repair prompt can
		// carry it back to the backend.
		assert.Equal(t, verb, verr.Symbol)
	}
}

func TestValidateFailsClosedOnUnknownVerb(t *testing.T) {
	d := &Descriptor{
		Type:  "novel",
		Rules: []Rule{{When: "go", Actions: []Action{{Do: "teleport", Key: "x"}}}},
	}
	err := Validator{}.Validate(d)
	var verr *fault.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "teleport", verr.Symbol)
}

func TestValidateStructuralChecks(t *testing.T) {
	assert.Error(t, Validator{}.Validate(nil))
	assert.Error(t, Validator{}.Validate(&Descriptor{}), "missing type")
	assert.Error(t, Validator{}.Validate(&Descriptor{
		Type:  "x",
		Rules: []Rule{{When: "", Actions: []Action{{Do: "set", Key: "k"}}}},
	}), "missing match condition")
	assert.Error(t, Validator{}.Validate(&Descriptor{
		Type:  "x",
		Rules: []Rule{{When: "go", Actions: []Action{{Do: "set"}}}},
	}), "missing target key")
}
