package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
)

// Panels are the three dashboard cards generated from a chat-ready persona's
// stored summary.
type Panels struct {
	About     string   `json:"about"`
	Interests []string `json:"interests,omitempty"`
	Questions string   `json:"questions"`
}

// PanelsService fans out the three panel completions concurrently; any failure
// cancels the rest.
type PanelsService struct {
	db  core.DbClient
	llm core.LLMProvider
	log *logger.Logger
}

func NewPanelsService(db core.DbClient, llm core.LLMProvider, log *logger.Logger) *PanelsService {
	return &PanelsService{db: db, llm: llm, log: log}
}

func (s *PanelsService) Generate(ctx context.Context, userID, personaID string) (*Panels, error) {
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
	if !p.ChatReady() {
		return nil, fmt.Errorf("%w: summary missing for persona %s", core.ErrNotReady, personaID)
	}

	summary := p.Summary.Text()

	var about, interestsRaw, questions string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		about, err = s.complete(gctx, aboutPanelPrompt(summary))
		return err
	})
	g.Go(func() error {
		var err error
		interestsRaw, err = s.complete(gctx, interestsPanelPrompt(summary))
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.complete(gctx, questionsPanelPrompt(summary))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Panels{
		About:     about,
		Interests: parseInterests(interestsRaw),
		Questions: questions,
	}, nil
}

func (s *PanelsService) complete(ctx context.Context, prompt string) (string, error) {
	return s.llm.Chat(ctx, []core.ChatMessage{{Role: core.RoleUser, Content: prompt}}, 0.7)
}

// parseInterests decodes the strict-JSON-array contract; a reply that ignored
// the format yields no interests rather than an error.
func parseInterests(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &out); err != nil {
		return nil
	}
	return out
}
