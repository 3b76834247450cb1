package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/services"
)

// EnrichmentHandler receives the external workflow's results. The workflow is
// not a user and cannot carry a JWT, so the endpoint is guarded by a shared
// token instead.
type EnrichmentHandler struct {
	personas *services.PersonaService
	token    string
}

func NewEnrichmentHandler(personas *services.PersonaService, token string) *EnrichmentHandler {
	return &EnrichmentHandler{personas: personas, token: token}
}

type enrichmentCallback struct {
	PersonaID    string          `json:"persona_id"`
	ProfileData  json.RawMessage `json:"profile_data"`
	ArticlesData json.RawMessage `json:"articles_data"`
}

func (h *EnrichmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		// Callback disabled: the workflow writes to the database directly.
		http.NotFound(w, r)
		return
	}
	supplied := r.Header.Get("X-Webhook-Token")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req enrichmentCallback
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ValidationError("invalid request body"))
		return
	}

	if err := h.personas.CompleteEnrichment(r.Context(), req.PersonaID, req.ProfileData, req.ArticlesData); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}
