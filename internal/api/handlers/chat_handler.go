package handlers

import (
	"encoding/json"
	"net/http"

	middleware "github.com/hatchai/hatch-backend/internal/api/middlewares"
	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/services"
)

type ChatHandler struct {
	personas *services.PersonaService
	chats    *services.ChatService
}

func NewChatHandler(personas *services.PersonaService, chats *services.ChatService) *ChatHandler {
	return &ChatHandler{personas: personas, chats: chats}
}

type chatRequest struct {
	PersonaID string             `json:"persona_id"`
	SessionID string             `json:"session_id,omitempty"`
	Messages  []core.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Send is the single chat entry point. An empty messages array means
// "initialize this persona": wait for enrichment, synthesize the summary and
// return the opening greeting. A non-empty array continues the chat.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ValidationError("invalid request body"))
		return
	}

	if len(req.Messages) == 0 {
		greeting, sessionID, err := h.personas.Initialize(r.Context(), userID, req.PersonaID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Message: greeting, SessionID: sessionID})
		return
	}

	reply, sessionID, err := h.chats.SendMessage(r.Context(), userID, req.PersonaID, req.SessionID, req.Messages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Message: reply, SessionID: sessionID})
}
