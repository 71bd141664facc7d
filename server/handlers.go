// File: server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/protean-io/protean/core"
	"github.com/protean-io/protean/fault"
	"github.com/protean-io/protean/universal"
)

// --- request/response shapes ---

type spawnRequest struct {
	ID string `json:"id,omitempty"`
}

type spawnResponse struct {
	ID core.ActorId `json:"id"`
}

type transformRequest struct {
	Description string `json:"description"`
}

type transformResponse struct {
	ID     core.ActorId `json:"id"`
	Status string       `json:"status"` // "transformed" | "failed"
	Reason string       `json:"reason,omitempty"`
}

type sendRequest struct {
	Message map[string]interface{} `json:"message"`
}

type capabilityRequest struct {
	Op   core.Op                `json:"op"`
	Args map[string]interface{} `json:"args,omitempty"`
}

type overrideRequest struct {
	Name string `json:"name"`
}

// --- handlers ---

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, &fault.InvalidArgsError{Op: "spawn", Detail: err.Error()})
			return
		}
	}

	_, id, err := s.sys.Spawn(req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, spawnResponse{ID: id})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	reply, err := s.ask(r.PathValue("id"), universal.DescribeSelf{Token: "http"}, s.sys.Config.CapabilityTimeout)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	reply, err := s.ask(r.PathValue("id"), universal.GetState{Token: "http"}, s.sys.Config.CapabilityTimeout)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		s.writeError(w, &fault.InvalidArgsError{Op: "transform", Detail: "missing description"})
		return
	}

	// The ask bound covers the backend round-trip plus one repair retry.
	timeout := 2*s.sys.Config.TransformTimeout + time.Second
	reply, err := s.ask(r.PathValue("id"), universal.TransformViaDescription{Description: req.Description}, timeout)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch m := reply.(type) {
	case universal.Transformed:
		s.writeJSON(w, http.StatusOK, transformResponse{ID: m.ID, Status: "transformed"})
	case universal.TransformFailed:
		status := http.StatusBadGateway
		var verr *fault.ValidationError
		if errors.As(m.Err, &verr) {
			status = http.StatusUnprocessableEntity
		}
		s.writeJSON(w, status, transformResponse{ID: m.ID, Status: "failed", Reason: m.Reason})
	default:
		s.writeJSON(w, http.StatusOK, reply)
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
		s.writeError(w, &fault.InvalidArgsError{Op: "send", Detail: "missing message"})
		return
	}

	pid := s.sys.Engine.Lookup(r.PathValue("id"))
	if pid == nil {
		s.writeError(w, &fault.NotFoundError{ID: r.PathValue("id")})
		return
	}
	s.sys.Engine.Send(pid, req.Message, nil)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	var req capabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Op == "" {
		s.writeError(w, &fault.InvalidArgsError{Op: "capability", Detail: "missing op"})
		return
	}

	reply, err := s.ask(r.PathValue("id"), universal.CapabilityRequest{Op: req.Op, Args: req.Args}, s.sys.Config.CapabilityTimeout)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if ce, failed := reply.(universal.CapabilityError); failed {
		status := http.StatusForbidden
		var denied *fault.CapabilityDeniedError
		if !errors.As(ce.Err, &denied) {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, ce)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleRegistry(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sys.Store.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, &fault.InvalidArgsError{Op: "events", Detail: "n must be a positive integer"})
			return
		}
		n = parsed
	}
	s.writeJSON(w, http.StatusOK, s.sys.Store.GetRecent(n))
}

func (s *Server) handleEventsByID(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sys.Store.GetBy(core.ActorId(r.PathValue("id"))))
}

func (s *Server) handleBackends(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sys.Chain.Backends())
}

func (s *Server) handleBackendOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &fault.InvalidArgsError{Op: "override", Detail: err.Error()})
		return
	}
	s.sys.Chain.SetOverride(req.Name)
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

// ask resolves the actor by id and performs a bounded Ask round-trip.
func (s *Server) ask(id string, msg interface{}, timeout time.Duration) (interface{}, error) {
	pid := s.sys.Engine.Lookup(id)
	if pid == nil {
		return nil, &fault.NotFoundError{ID: id}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.sys.Engine.Ask(ctx, pid, msg, nil)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("writing response")
	}
}

// writeError maps the shared error taxonomy onto HTTP statuses so external
// callers can tell failure classes apart without parsing strings.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		notFound    *fault.NotFoundError
		exists      *fault.AlreadyExistsError
		invalid     *fault.InvalidArgsError
		validation  *fault.ValidationError
		denied      *fault.CapabilityDeniedError
		timeout     *fault.TimeoutError
		unavailable *fault.BackendUnavailableError
		backendFail *fault.BackendFailureError
	)
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &exists):
		status = http.StatusConflict
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &validation):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &denied):
		status = http.StatusForbidden
	case errors.As(err, &timeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &unavailable), errors.As(err, &backendFail):
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
