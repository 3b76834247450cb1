package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/models"
)

// ChatService produces one in-character reply per human message and keeps the
// conversation log append-only and ordered.
type ChatService struct {
	db  core.DbClient
	llm core.LLMProvider
	log *logger.Logger
}

func NewChatService(db core.DbClient, llm core.LLMProvider, log *logger.Logger) *ChatService {
	return &ChatService{db: db, llm: llm, log: log}
}

// SendMessage handles one chat turn. The caller supplies the running message
// history with the new human message last; the persona itself is re-fetched
// fresh from the record store so in-character knowledge reflects the latest
// stored state even if synthesis re-ran mid-conversation.
//
// The LLM call happens before any write: on failure nothing is logged, so the
// transcript never shows a dangling unanswered message. On success the human
// turn is persisted strictly before the AI turn.
func (s *ChatService) SendMessage(ctx context.Context, userID, personaID, sessionID string,
	history []core.ChatMessage) (reply, session string, err error) {

	if personaID == "" {
		return "", "", core.ValidationError("persona id is required")
	}
	if len(history) == 0 {
		return "", "", core.ValidationError("message list is empty")
	}
	last := history[len(history)-1]
	if last.Role != core.RoleUser || strings.TrimSpace(last.Content) == "" {
		return "", "", core.ValidationError("last message must be a non-empty user message")
	}

	p, err := s.db.GetPersonaByID(ctx, personaID)
	if err != nil {
		return "", "", core.PersistenceError("get persona", err)
	}
	if p == nil || p.UserID != userID {
		return "", "", core.NotFoundError("persona", personaID)
	}
	if !p.Enriched() {
		return "", "", fmt.Errorf("%w: raw payload incomplete for persona %s", core.ErrNotReady, personaID)
	}
	if !p.ChatReady() {
		return "", "", fmt.Errorf("%w: summary missing for persona %s", core.ErrNotReady, personaID)
	}

	messages := make([]core.ChatMessage, 0, len(history)+1)
	messages = append(messages, core.ChatMessage{Role: core.RoleSystem, Content: BuildPersonaPrompt(p, ModeChat)})
	for _, m := range history {
		role := core.RoleUser
		if m.Role == core.RoleAssistant {
			role = core.RoleAssistant
		}
		messages = append(messages, core.ChatMessage{Role: role, Content: m.Content})
	}

	reply, err = s.llm.Chat(ctx, messages, 0.7)
	if err != nil {
		return "", "", err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	humanTurn := &models.ConversationTurn{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		UserID:    userID,
		SessionID: sessionID,
		ByAI:      false,
		Message:   last.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.AppendTurn(ctx, humanTurn); err != nil {
		return "", "", core.PersistenceError("persist human turn", err)
	}

	aiTurn := &models.ConversationTurn{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		UserID:    userID,
		SessionID: sessionID,
		ByAI:      true,
		Message:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.AppendTurn(ctx, aiTurn); err != nil {
		return "", "", core.PersistenceError("persist ai turn", err)
	}

	s.log.Debug("chat turn completed", "persona_id", personaID, "session_id", sessionID)
	return reply, sessionID, nil
}

// Transcript returns a session's turns in creation order.
func (s *ChatService) Transcript(ctx context.Context, userID, personaID, sessionID string) ([]models.ConversationTurn, error) {
	if personaID == "" || sessionID == "" {
		return nil, core.ValidationError("persona id and session id are required")
	}
	p, err := s.db.GetPersonaByID(ctx, personaID)
	if err != nil {
		return nil, core.PersistenceError("get persona", err)
	}
	if p == nil || p.UserID != userID {
		return nil, core.NotFoundError("persona", personaID)
	}
	turns, err := s.db.ListTurns(ctx, personaID, sessionID)
	if err != nil {
		return nil, core.PersistenceError("list turns", err)
	}
	return turns, nil
}
