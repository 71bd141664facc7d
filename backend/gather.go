// File: backend/gather.go
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/store"
	"github.com/protean-io/protean/universal"
)

// ContextLevel classifies how much live-system context a description needs.
// Prompts stay small by default and only grow when the description implies
// cross-actor awareness.
type ContextLevel int

const (
	ContextNone ContextLevel = iota
	ContextCount
	ContextProcesses
	ContextFull
)

var (
	globalWords  = []string{"all ", "every", "entire", "whole", "system", "global"}
	connectWords = []string{"connect", "talk", "coordinate", "other actor", "peers", "collaborate"}
	spawnWords   = []string{"spawn", "child", "worker", "create actor", "manage"}
)

// Classify decides the context level from keywords in the description.
func Classify(description string) ContextLevel {
	lower := strings.ToLower(description)
	contains := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains(globalWords):
		return ContextFull
	case contains(connectWords):
		return ContextProcesses
	case contains(spawnWords):
		return ContextCount
	default:
		return ContextNone
	}
}

// Gatherer assembles the minimal context block attached to a generation
// prompt: nothing, a bare actor count, the live process list via parallel
// DescribeSelf probes with a short per-probe timeout, or a full snapshot.
type Gatherer struct {
	engine       *actor.Engine
	store        *store.Store
	probeTimeout time.Duration
	recentEvents int
}

// NewGatherer creates a gatherer. probeTimeout bounds each liveness probe;
// tens of milliseconds is the expected scale.
func NewGatherer(engine *actor.Engine, st *store.Store, probeTimeout time.Duration) *Gatherer {
	return &Gatherer{
		engine:       engine,
		store:        st,
		probeTimeout: probeTimeout,
		recentEvents: 10,
	}
}

// Gather renders the context block for one description. It never fails: a
// probe that times out is simply absent from the result.
func (g *Gatherer) Gather(ctx context.Context, description string) string {
	switch Classify(description) {
	case ContextCount:
		return fmt.Sprintf("live actors: %d", g.engine.ActorCount())
	case ContextProcesses:
		return g.processList(ctx)
	case ContextFull:
		return g.fullSnapshot(ctx)
	default:
		return ""
	}
}

// processList probes every live actor in parallel and reports the ones that
// answered in time.
func (g *Gatherer) processList(ctx context.Context) string {
	pids := g.engine.PIDs()

	var mu sync.Mutex
	descriptions := make([]universal.SelfDescription, 0, len(pids))

	grp, gctx := errgroup.WithContext(ctx)
	for _, pid := range pids {
		grp.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, g.probeTimeout)
			defer cancel()
			reply, err := g.engine.Ask(pctx, pid, universal.DescribeSelf{Token: pid.ID}, nil)
			if err != nil {
				return nil // unresponsive actors are skipped, not fatal
			}
			if sd, ok := reply.(universal.SelfDescription); ok {
				mu.Lock()
				descriptions = append(descriptions, sd)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = grp.Wait()

	var b strings.Builder
	fmt.Fprintf(&b, "live actors (%d responding of %d):\n", len(descriptions), len(pids))
	for _, sd := range descriptions {
		kind := sd.Metadata.Type
		if kind == "" {
			kind = "untransformed"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", sd.ID, kind, sd.Metadata.Description)
	}
	return b.String()
}

// fullSnapshot renders the registry projection plus recent history.
func (g *Gatherer) fullSnapshot(ctx context.Context) string {
	var b strings.Builder
	b.WriteString(g.processList(ctx))

	registry, _ := json.Marshal(g.store.GetContext())
	fmt.Fprintf(&b, "registry: %s\n", registry)

	b.WriteString("recent events:\n")
	for _, e := range g.store.GetRecent(g.recentEvents) {
		fmt.Fprintf(&b, "- [%d] %s %s\n", e.TimestampMs, e.ID, e.Kind)
	}
	return b.String()
}
