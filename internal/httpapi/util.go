// Package httpapi is the thin REST/SSE boundary §6.2 describes: it maps
// requests 1-to-1 onto the core's consumer-facing operations and serializes
// the broadcast hub's streaming_delta events onto an SSE channel. Grounded
// on the teacher's internal/handler + internal/middleware (chi routing, JWT
// auth, CORS, rate limiting, request logging), renamed from
// conversation/tenant concepts to meeting/participant ones.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status via its apperr.Kind, per §7's
// classification. An error with no recognizable Kind is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch appErr.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindStateConflict:
			status = http.StatusConflict
		case apperr.KindAuthFailed:
			status = http.StatusUnauthorized
		case apperr.KindRateLimited:
			status = http.StatusTooManyRequests
		case apperr.KindNetwork:
			status = http.StatusBadGateway
		case apperr.KindProviderError:
			if appErr.Status >= 400 && appErr.Status < 600 {
				status = appErr.Status
			} else {
				status = http.StatusBadGateway
			}
		case apperr.KindPersistenceFailed:
			status = http.StatusInternalServerError
		case apperr.KindCancelled:
			status = 499 // client closed request, matching the nginx convention
		}
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "malformed JSON body")
	}
	return nil
}
