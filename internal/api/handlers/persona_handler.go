package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/hatchai/hatch-backend/internal/api/middlewares"
	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/services"
)

type PersonaHandler struct {
	personas *services.PersonaService
	chats    *services.ChatService
	panels   *services.PanelsService
}

func NewPersonaHandler(personas *services.PersonaService, chats *services.ChatService, panels *services.PanelsService) *PersonaHandler {
	return &PersonaHandler{personas: personas, chats: chats, panels: panels}
}

type createPersonaRequest struct {
	Name        string `json:"name"`
	LinkedInURL string `json:"linkedin_url"`
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ValidationError("invalid request body"))
		return
	}

	persona, err := h.personas.Create(r.Context(), userID, req.Name, req.LinkedInURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, persona)
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	personas, err := h.personas.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"personas": personas})
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	persona, err := h.personas.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.personas.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PersonaHandler) Panels(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	panels, err := h.panels.Generate(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panels)
}

func (h *PersonaHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	turns, err := h.chats.Transcript(r.Context(), userID, chi.URLParam(r, "id"), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}
