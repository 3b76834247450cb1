package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hatchai/hatch-backend/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy to HTTP statuses at the handler boundary.
// Rate-limit and quota statuses from the LLM gateway pass through so the UI
// can show its specific messages; other upstream failures collapse to 502.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, core.ErrUpstreamTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, core.ErrPersistence):
		status = http.StatusInternalServerError
	default:
		if ue, ok := core.AsUpstreamStatus(err); ok {
			switch ue.Status {
			case http.StatusTooManyRequests, http.StatusPaymentRequired:
				status = ue.Status
			default:
				status = http.StatusBadGateway
			}
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
