package core

import (
	"context"

	"github.com/hatchai/hatch-backend/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB
// and tests can substitute a fake record store.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreatePersona(ctx context.Context, p *models.Persona) error
	GetPersonaByID(ctx context.Context, id string) (*models.Persona, error)
	ListPersonasByUser(ctx context.Context, userID string) ([]models.Persona, error)
	UpdatePersonaRawData(ctx context.Context, id string, profileData, articlesData []byte) error
	UpdatePersonaSummary(ctx context.Context, id string, summary *models.PersonaSummary) error
	DeletePersona(ctx context.Context, id string) error

	AppendTurn(ctx context.Context, turn *models.ConversationTurn) error
	ListTurns(ctx context.Context, personaID, sessionID string) ([]models.ConversationTurn, error)

	Close() error
}

// Chat roles on the LLM gateway wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the ordered message list sent to the LLM gateway.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMProvider is a hosted chat-completion endpoint. All internal calls
// (synthesis, greeting, chat, panels) use this one contract with different
// prompt content.
type LLMProvider interface {
	Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
}

// EnrichmentNotifier fires the one-way notification that asks the external
// workflow to populate a persona's raw payload fields.
type EnrichmentNotifier interface {
	Notify(ctx context.Context, p *models.Persona) error
}
