// File: system/system.go
package system

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/protean-io/protean/actor"
	"github.com/protean-io/protean/backend"
	"github.com/protean-io/protean/capability"
	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/store"
	"github.com/protean-io/protean/universal"
	"github.com/protean-io/protean/utils"
)

// System wires the runtime together: one engine, one store, one backend
// chain, one mediator, constructed once at process start and passed by
// reference to everything that needs them.
type System struct {
	Config   utils.Config
	Logger   zerolog.Logger
	Engine   *actor.Engine
	Store    *store.Store
	Chain    *backend.Chain
	Mediator *capability.Mediator

	deps universal.Deps
}

// New assembles a System from configuration.
func New(cfg utils.Config, logger zerolog.Logger) *System {
	engine := actor.NewEngine(logger)
	st := store.New(logger)

	gatherer := backend.NewGatherer(engine, st, cfg.ProbeTimeout)
	chain := backend.NewChain(backends(cfg), gatherer, logger)
	if cfg.BackendOverride != "" {
		chain.SetOverride(cfg.BackendOverride)
	}

	s := &System{
		Config: cfg,
		Logger: logger,
		Engine: engine,
		Store:  st,
		Chain:  chain,
	}

	s.Mediator = capability.NewMediator(
		engine, st, chain,
		func(name string) (core.ActorId, error) {
			_, id, err := s.Spawn(name)
			return id, err
		},
		http.DefaultClient,
		logger,
	)

	s.deps = universal.Deps{
		Store:             st,
		Transformer:       chain,
		Mediator:          s.Mediator,
		TransformTimeout:  cfg.TransformTimeout,
		CapabilityTimeout: cfg.CapabilityTimeout,
		MailboxSize:       cfg.MailboxSize,
		Logger:            logger,
	}
	return s
}

// backends builds the chain's backend list in priority order: interactive
// tool > local model > remote API > deterministic mock. The mock is the
// terminal fallback, so transformation never fails for lack of a backend.
func backends(cfg utils.Config) []backend.Backend {
	return []backend.Backend{
		backend.NewCLIToolBackend(cfg.CLIToolCommand),
		backend.NewLocalModelBackend(cfg.LocalModelURL, cfg.LocalModelName, cfg.TransformTimeout),
		backend.NewRemoteAPIBackend(cfg.RemoteAPIURL, cfg.RemoteAPIKey, cfg.RemoteModelName, cfg.TransformTimeout),
		backend.MockBackend{},
	}
}

// Spawn creates a Universal actor. An empty id gets a generated one.
func (s *System) Spawn(id string) (*actor.PID, core.ActorId, error) {
	return universal.Spawn(s.Engine, s.deps, id)
}

// Shutdown stops every actor, bounded by the configured timeout.
func (s *System) Shutdown() {
	s.Engine.Shutdown(s.Config.ShutdownTimeout)
}
