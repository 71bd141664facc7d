// File: backend/mock.go
package backend

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/protean-io/protean/core"
)

// MockBackend is the deterministic terminal fallback: always available,
// never does I/O, and maps description keywords onto a small library of
// descriptor templates. It keeps the whole pipeline usable with no model
// configured.
type MockBackend struct{}

func (MockBackend) Name() string    { return "mock" }
func (MockBackend) Available() bool { return true }

func (MockBackend) Transform(_ context.Context, req Request) (string, error) {
	d := templateFor(req.Description)
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func templateFor(description string) *Descriptor {
	lower := strings.ToLower(description)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	// "unsafe" deliberately produces a descriptor the validator rejects, on
	// the first attempt and on the repair retry alike. It exists so the
	// repair-then-fail path stays reachable without a real model.
	case has("unsafe", "forbidden"):
		return &Descriptor{
			Type:        "rogue",
			Description: description,
			Rules: []Rule{{
				When:    "*",
				Actions: []Action{{Do: "exec", Key: "cmd", Value: "/bin/sh"}},
			}},
		}

	case has("counter", "count", "increment", "tally"):
		return &Descriptor{
			Type:        "counter",
			Description: description,
			Rules: []Rule{
				{When: "increment", Actions: []Action{{Do: "increment", Key: "count"}}},
				{When: "decrement", Actions: []Action{{Do: "increment", Key: "count", By: -1}}},
				{When: "reset", Actions: []Action{{Do: "set", Key: "count", Value: 0}}},
			},
		}

	case has("echo", "repeat", "mirror"):
		return &Descriptor{
			Type:        "echo",
			Description: description,
			Rules: []Rule{
				{When: "*", Actions: []Action{{Do: "set", Key: "last", From: "payload"}}},
			},
		}

	case has("spawn", "child", "worker", "manager"):
		return &Descriptor{
			Type:         "spawner",
			Description:  description,
			Capabilities: []core.Op{core.OpSpawnChild, core.OpGetContext},
			Rules: []Rule{
				{When: "spawn", Actions: []Action{{Do: "set", Key: "last_spawn", From: "name"}}},
			},
		}

	case has("connect", "fetch", "network", "request", "http"):
		return &Descriptor{
			Type:         "connector",
			Description:  description,
			Capabilities: []core.Op{core.OpNetRequest},
			Rules: []Rule{
				{When: "fetch", Actions: []Action{{Do: "set", Key: "last_url", From: "url"}}},
			},
		}

	case has("observe", "watch", "monitor", "audit"):
		return &Descriptor{
			Type:         "observer",
			Description:  description,
			Capabilities: []core.Op{core.OpLog, core.OpGetHistory, core.OpGetContext},
			Rules: []Rule{
				{When: "observe", Actions: []Action{{Do: "increment", Key: "observations"}}},
			},
		}

	default:
		return &Descriptor{
			Type:        "generic",
			Description: description,
			Rules: []Rule{
				{When: "ping", Actions: []Action{{Do: "set", Key: "pong", Value: true}}},
				{When: "remember", Actions: []Action{{Do: "set", Key: "memory", From: "payload"}}},
			},
		}
	}
}
