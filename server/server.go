// File: server/server.go
package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/protean-io/protean/system"
)

// Server is the HTTP + WebSocket command surface. It speaks exactly the
// message contracts of the Universal actor and the query contracts of the
// store; it holds no state of its own beyond live subscriber connections.
type Server struct {
	sys    *system.System
	logger zerolog.Logger
}

// New creates a gateway over an assembled system.
func New(sys *system.System) *Server {
	return &Server{
		sys:    sys,
		logger: sys.Logger.With().Str("component", "gateway").Logger(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /actors", s.handleSpawn)
	mux.HandleFunc("GET /actors/{id}", s.handleDescribe)
	mux.HandleFunc("GET /actors/{id}/state", s.handleGetState)
	mux.HandleFunc("POST /actors/{id}/transform", s.handleTransform)
	mux.HandleFunc("POST /actors/{id}/send", s.handleSend)
	mux.HandleFunc("POST /actors/{id}/capability", s.handleCapability)

	mux.HandleFunc("GET /registry", s.handleRegistry)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /events/{id}", s.handleEventsByID)

	mux.HandleFunc("GET /backends", s.handleBackends)
	mux.HandleFunc("PUT /backends/override", s.handleBackendOverride)

	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))

	return mux
}

// ListenAndServe starts the gateway on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("gateway listening")
	return http.ListenAndServe(addr, s.Handler())
}
