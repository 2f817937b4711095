package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/internal/meetingsvc"
	"github.com/PabloGalante/meeting-engine/internal/middleware"
	"github.com/PabloGalante/meeting-engine/internal/turnengine"
)

// MeetingHandler exposes §6.1's meeting-aggregate operations over HTTP.
type MeetingHandler struct {
	svc *meetingsvc.Service
}

// NewMeetingHandler constructs a MeetingHandler backed by svc.
func NewMeetingHandler(svc *meetingsvc.Service) *MeetingHandler {
	return &MeetingHandler{svc: svc}
}

type createMeetingRequest struct {
	Topic          string               `json:"topic"`
	ParticipantIDs []string             `json:"participant_ids"`
	Moderator      domain.Moderator     `json:"moderator"`
	Agenda         []domain.AgendaItem  `json:"agenda"`
	Config         domain.MeetingConfig `json:"config"`
}

// Create handles POST /meetings.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	meeting, err := h.svc.Create(r.Context(), req.Topic, req.ParticipantIDs, req.Moderator, req.Agenda, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

// List handles GET /meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *MeetingHandler) meetingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateMeetingID(id); err != nil {
		writeError(w, err)
		return "", false
	}
	return id, true
}

// Get handles GET /meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	meeting, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

// Delete handles DELETE /meetings/{id}.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start handles POST /meetings/{id}/start.
func (h *MeetingHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Start(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusActive)})
}

// Pause handles POST /meetings/{id}/pause.
func (h *MeetingHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Pause(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusPaused)})
}

// End handles POST /meetings/{id}/end.
func (h *MeetingHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.End(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusEnded)})
}

// Cancel handles POST /meetings/{id}/cancel, aborting whatever turn or chain
// is currently in flight (§4.11) without changing meeting status.
func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	h.svc.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

type addMessageRequest struct {
	Content string `json:"content"`
}

// AddUserMessage handles POST /meetings/{id}/messages.
func (h *MeetingHandler) AddUserMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req addMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.svc.AddUserMessage(r.Context(), id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type requestTurnRequest struct {
	AgentID string        `json:"agent_id"`
	Mode    turnengine.Mode `json:"mode"`
}

// RequestTurn handles POST /meetings/{id}/turns. Streaming callers should
// use the SSE endpoint instead of this one to observe deltas as they arrive.
func (h *MeetingHandler) RequestTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req requestTurnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = turnengine.ModeBlocking
	}
	msg, err := h.svc.RequestTurn(r.Context(), id, req.AgentID, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type runRoundRequest struct {
	Mode turnengine.Mode `json:"mode"`
}

// RunRound handles POST /meetings/{id}/rounds.
func (h *MeetingHandler) RunRound(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req runRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = turnengine.ModeBlocking
	}
	messages, err := h.svc.RunRound(r.Context(), id, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// AddAgendaItem handles POST /meetings/{id}/agenda.
func (h *MeetingHandler) AddAgendaItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var item domain.AgendaItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.AddAgendaItem(r.Context(), id, item, middleware.GetRequesterID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// MarkAgendaCompleted handles POST /meetings/{id}/agenda/{item_id}/complete.
func (h *MeetingHandler) MarkAgendaCompleted(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "item_id")
	if err := h.svc.MarkAgendaCompleted(r.Context(), id, itemID, middleware.GetRequesterID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveAgendaItem handles DELETE /meetings/{id}/agenda/{item_id}.
func (h *MeetingHandler) RemoveAgendaItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "item_id")
	if err := h.svc.RemoveAgendaItem(r.Context(), id, itemID, middleware.GetRequesterID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	GeneratorID string `json:"generator_id"`
}

// GenerateMinutes handles POST /meetings/{id}/minutes/generate.
func (h *MeetingHandler) GenerateMinutes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	version, err := h.svc.GenerateMinutes(r.Context(), id, req.GeneratorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

type updateMinutesRequest struct {
	Content string `json:"content"`
}

// UpdateMinutes handles PUT /meetings/{id}/minutes.
func (h *MeetingHandler) UpdateMinutes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req updateMinutesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	version, err := h.svc.UpdateMinutes(r.Context(), id, req.Content, middleware.GetRequesterID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// MinutesHistory handles GET /meetings/{id}/minutes/history.
func (h *MeetingHandler) MinutesHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	history, err := h.svc.MinutesHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// GenerateMindMap handles POST /meetings/{id}/mindmap/generate.
func (h *MeetingHandler) GenerateMindMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	mm, err := h.svc.GenerateMindMap(r.Context(), id, req.GeneratorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mm)
}

// UpdateMindMap handles PUT /meetings/{id}/mindmap.
func (h *MeetingHandler) UpdateMindMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	var mm domain.MindMap
	if err := decodeJSON(r, &mm); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpdateMindMap(r.Context(), id, &mm, middleware.GetRequesterID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mm)
}

// Export handles GET /meetings/{id}/export?format=markdown|json.
func (h *MeetingHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	data, err := h.svc.Export(r.Context(), id, format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExportMindMap handles GET /meetings/{id}/mindmap/export?format=markdown|json|png|svg.
func (h *MeetingHandler) ExportMindMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	data, err := h.svc.ExportMindMap(r.Context(), id, format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func contentTypeFor(format string) string {
	switch format {
	case "markdown":
		return "text/markdown; charset=utf-8"
	case "png":
		return "image/png"
	case "svg":
		return "image/svg+xml"
	default:
		return "application/json"
	}
}
