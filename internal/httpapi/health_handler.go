package httpapi

import "net/http"

// HealthHandler serves liveness/readiness probes.
type HealthHandler struct {
	// ready reports whether the store is usable; the audit mirror is not
	// checked. A nil ready always reports ready — used when there is
	// nothing external to check.
	ready func() error
}

// NewHealthHandler constructs a HealthHandler. ready may be nil.
func NewHealthHandler(ready func() error) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
