package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/core/enrichment"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/models"
)

// PersonaService owns the persona lifecycle: creation with the fire-and-forget
// enrichment trigger, initialization (wait for enrichment, synthesize the
// summary, open the first session with a greeting), reads, and cascade delete.
type PersonaService struct {
	db       core.DbClient
	llm      core.LLMProvider
	notifier core.EnrichmentNotifier
	poller   *enrichment.Poller
	log      *logger.Logger

	modelName string
	// cleanupOnFailure deletes the partial row when synthesis fails instead
	// of preserving it for a retry.
	cleanupOnFailure bool
}

func NewPersonaService(db core.DbClient, llm core.LLMProvider, notifier core.EnrichmentNotifier,
	poller *enrichment.Poller, log *logger.Logger, modelName string, cleanupOnFailure bool) *PersonaService {
	return &PersonaService{
		db: db, llm: llm, notifier: notifier, poller: poller, log: log,
		modelName: modelName, cleanupOnFailure: cleanupOnFailure,
	}
}

// Create inserts an empty persona (name + source only) and triggers the
// external enrichment workflow. The trigger never blocks or fails the create:
// enrichment is asynchronous by design and its absence surfaces later as the
// poller's timeout, not here.
func (s *PersonaService) Create(ctx context.Context, userID, name, linkedinURL string) (*models.Persona, error) {
	if userID == "" {
		return nil, core.ValidationError("user id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, core.ValidationError("persona name is required")
	}
	if err := validateSourceURL(linkedinURL); err != nil {
		return nil, err
	}

	p := &models.Persona{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		LinkedInURL: linkedinURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.CreatePersona(ctx, p); err != nil {
		return nil, core.PersistenceError("create persona", err)
	}

	// Detached from the request context: the caller's success path must not
	// block on the workflow service.
	go func(notifyCtx context.Context) {
		if err := s.notifier.Notify(notifyCtx, p); err != nil {
			s.log.Warn("enrichment trigger failed", "persona_id", p.ID, "error", err)
		}
	}(context.WithoutCancel(ctx))

	return p, nil
}

// Initialize makes a persona chat-ready: waits for the raw payload, runs the
// synthesis call, persists the summary, then generates and logs the opening
// greeting under a fresh session id. The summary write must complete before
// any greeting exists, so a persona is never observably greeted but
// unsummarized.
func (s *PersonaService) Initialize(ctx context.Context, userID, personaID string) (greeting, sessionID string, err error) {
	p, err := s.getOwned(ctx, userID, personaID)
	if err != nil {
		return "", "", err
	}

	if !p.Enriched() {
		p, err = s.poller.WaitForEnrichment(ctx, personaID)
		if err != nil {
			return "", "", err
		}
		if p.UserID != userID {
			return "", "", core.NotFoundError("persona", personaID)
		}
	}

	summary, err := s.synthesize(ctx, p)
	if err != nil {
		return "", "", s.failInitialization(ctx, personaID, err)
	}
	if err := s.db.UpdatePersonaSummary(ctx, personaID, summary); err != nil {
		return "", "", s.failInitialization(ctx, personaID, core.PersistenceError("persist summary", err))
	}
	p.Summary = summary

	greeting, err = s.greet(ctx, p)
	if err != nil {
		// Summary already persisted: the persona is chat-ready, keep it.
		return "", "", err
	}

	sessionID = uuid.NewString()
	turn := &models.ConversationTurn{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		UserID:    userID,
		SessionID: sessionID,
		ByAI:      true,
		Message:   greeting,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.AppendTurn(ctx, turn); err != nil {
		return "", "", core.PersistenceError("persist greeting turn", err)
	}

	s.log.Info("persona initialized", "persona_id", personaID, "session_id", sessionID)
	return greeting, sessionID, nil
}

// synthesize runs the structured-extraction call over the raw payload. The
// reply is stored as the structured summary when it parses, otherwise verbatim
// as a narrative, with generation time and model provenance either way.
func (s *PersonaService) synthesize(ctx context.Context, p *models.Persona) (*models.PersonaSummary, error) {
	messages := []core.ChatMessage{
		{Role: core.RoleSystem, Content: BuildPersonaPrompt(p, ModeSynthesize)},
		{Role: core.RoleUser, Content: fmt.Sprintf("Generate an AI persona for:\nName: %s\nLinkedIn: %s", p.Name, p.LinkedInURL)},
	}
	reply, err := s.llm.Chat(ctx, messages, 0.7)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("synthesis returned empty reply")
	}
	return parseSummary(reply, s.modelName), nil
}

func (s *PersonaService) greet(ctx context.Context, p *models.Persona) (string, error) {
	messages := []core.ChatMessage{
		{Role: core.RoleSystem, Content: BuildPersonaPrompt(p, ModeGreet)},
		{Role: core.RoleUser, Content: "Hello"},
	}
	greeting, err := s.llm.Chat(ctx, messages, 0.8)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(greeting) == "" {
		return "", fmt.Errorf("greeting returned empty reply")
	}
	return greeting, nil
}

// failInitialization applies the configured failure policy to the partial row
// and annotates the error so the caller knows whether the persona was deleted
// or preserved.
func (s *PersonaService) failInitialization(ctx context.Context, personaID string, cause error) error {
	if !s.cleanupOnFailure {
		return fmt.Errorf("%w (partial persona preserved for retry)", cause)
	}
	if err := s.db.DeletePersona(context.WithoutCancel(ctx), personaID); err != nil {
		s.log.Error("cleanup of partial persona failed", "persona_id", personaID, "error", err)
		return fmt.Errorf("%w (partial persona preserved: cleanup failed)", cause)
	}
	return fmt.Errorf("%w (partial persona deleted)", cause)
}

// CompleteEnrichment stores the raw payload the external workflow posts back.
// The payload is stored verbatim; readers normalize defensively on their side.
// At least one field must hold a usable document, otherwise the callback is a
// no-op that would leave the persona stuck, and we reject it instead.
func (s *PersonaService) CompleteEnrichment(ctx context.Context, personaID string, profileData, articlesData json.RawMessage) error {
	if personaID == "" {
		return core.ValidationError("persona id is required")
	}
	_, profileOK := models.NormalizeRawDoc(profileData)
	_, articlesOK := models.NormalizeRawDoc(articlesData)
	if !profileOK && !articlesOK {
		return core.ValidationError("enrichment payload holds no usable document")
	}

	p, err := s.db.GetPersonaByID(ctx, personaID)
	if err != nil {
		return core.PersistenceError("get persona", err)
	}
	if p == nil {
		return core.NotFoundError("persona", personaID)
	}

	if err := s.db.UpdatePersonaRawData(ctx, personaID, profileData, articlesData); err != nil {
		return core.PersistenceError("persist raw payload", err)
	}
	s.log.Info("enrichment payload stored", "persona_id", personaID)
	return nil
}

func (s *PersonaService) Get(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	return s.getOwned(ctx, userID, personaID)
}

func (s *PersonaService) List(ctx context.Context, userID string) ([]models.Persona, error) {
	if userID == "" {
		return nil, core.ValidationError("user id is required")
	}
	personas, err := s.db.ListPersonasByUser(ctx, userID)
	if err != nil {
		return nil, core.PersistenceError("list personas", err)
	}
	return personas, nil
}

// Delete removes the persona and its conversation rows together.
func (s *PersonaService) Delete(ctx context.Context, userID, personaID string) error {
	if _, err := s.getOwned(ctx, userID, personaID); err != nil {
		return err
	}
	if err := s.db.DeletePersona(ctx, personaID); err != nil {
		return core.PersistenceError("delete persona", err)
	}
	s.log.Info("persona deleted", "persona_id", personaID)
	return nil
}

// getOwned fetches a persona and hides rows owned by other users behind
// NotFound, the same answer as a row that does not exist.
func (s *PersonaService) getOwned(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	if personaID == "" {
		return nil, core.ValidationError("persona id is required")
	}
	p, err := s.db.GetPersonaByID(ctx, personaID)
	if err != nil {
		return nil, core.PersistenceError("get persona", err)
	}
	if p == nil || p.UserID != userID {
		return nil, core.NotFoundError("persona", personaID)
	}
	return p, nil
}

// parseSummary decodes the synthesis reply against the structured contract,
// falling back to a narrative summary holding the reply verbatim.
func parseSummary(reply, modelName string) *models.PersonaSummary {
	summary := &models.PersonaSummary{
		GeneratedAt: time.Now().UTC(),
		Model:       modelName,
	}

	cleaned := StripCodeFences(reply)
	var structured struct {
		PersonaSummary      *models.StructuredSummary `json:"personaSummary"`
		ChatbotInstructions string                    `json:"chatbotInstructions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &structured); err == nil && structured.PersonaSummary != nil {
		summary.PersonaSummary = structured.PersonaSummary
		summary.ChatbotInstructions = structured.ChatbotInstructions
		return summary
	}

	summary.Profile = reply
	return summary
}

func validateSourceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return core.ValidationError("source url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.ValidationError("source url %q is not a valid http(s) url", raw)
	}
	return nil
}
