package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/meeting-engine/internal/agentsvc"
	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/middleware"
)

// AgentHandler exposes §6.1's agent-aggregate operations over HTTP.
type AgentHandler struct {
	svc *agentsvc.Service
}

// NewAgentHandler constructs an AgentHandler backed by svc.
func NewAgentHandler(svc *agentsvc.Service) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// Create handles POST /agents.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var agent domain.Agent
	if err := decodeJSON(r, &agent); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.Create(r.Context(), agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /agents.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// Get handles GET /agents/{id}.
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateAgentID(id); err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// Update handles PUT /agents/{id}.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var agent domain.Agent
	if err := decodeJSON(r, &agent); err != nil {
		writeError(w, err)
		return
	}
	agent.ID = id
	updated, err := h.svc.Update(r.Context(), agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /agents/{id}.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestConnection handles POST /agents/{id}/test_connection.
func (h *AgentHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.TestConnection(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
