package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/meeting-engine/internal/broadcast"
	"github.com/PabloGalante/meeting-engine/internal/meetingsvc"
	"github.com/PabloGalante/meeting-engine/internal/middleware"
	"github.com/PabloGalante/meeting-engine/internal/turnengine"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
)

// StreamHandler serves §6.2's SSE mapping: one streaming_delta record per
// event, {type: reasoning|content|complete|error, content}, terminating the
// connection on complete or error.
type StreamHandler struct {
	svc *meetingsvc.Service
}

// NewStreamHandler constructs a StreamHandler backed by svc.
func NewStreamHandler(svc *meetingsvc.Service) *StreamHandler {
	return &StreamHandler{svc: svc}
}

type sseRecord struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, rec sseRecord) {
	data, _ := json.Marshal(rec)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// RequestTurn handles POST /meetings/{id}/turns/stream: it runs one
// streaming turn for agent_id and forwards that speaker's deltas as SSE
// records until a complete or error delta closes the stream.
func (h *StreamHandler) RequestTurn(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")
	if err := middleware.ValidateMeetingID(meetingID); err != nil {
		writeError(w, err)
		return
	}
	var req requestTurnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming not supported by this response writer"))
		return
	}

	events, unsubscribe := h.svc.SubscribeEvents(meetingID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	turnErrCh := make(chan error, 1)
	go func() {
		_, err := h.svc.RequestTurn(r.Context(), meetingID, req.AgentID, turnengine.ModeStreaming)
		turnErrCh <- err
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-turnErrCh:
			if err != nil {
				writeSSE(w, flusher, sseRecord{Type: "error", Content: err.Error()})
			}
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if ev.Kind == broadcast.EventLagged {
				writeSSE(w, flusher, sseRecord{Type: "error", Content: "subscriber lagged behind and was disconnected"})
				return
			}
			if ev.Kind != broadcast.EventStreamingDelta || ev.SpeakerID != req.AgentID {
				continue
			}
			rec := sseRecord{Type: string(ev.DeltaKind), Content: ev.DeltaText}
			writeSSE(w, flusher, rec)
			if ev.DeltaKind == broadcast.DeltaComplete || ev.DeltaKind == broadcast.DeltaError {
				return
			}
		}
	}
}
