package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/models"
)

// fakeDB is an in-memory record store. enrichAtFetch simulates the external
// workflow: starting at that fetch count, personas come back with raw fields.
type fakeDB struct {
	core.DbClient
	mu            sync.Mutex
	personas      map[string]*models.Persona
	turns         []*models.ConversationTurn
	ops           []string
	fetches       int
	enrichAtFetch int
	summaryErr    error
	appendErr     error
	appendErrOn   int // 1-based AppendTurn call to fail on
	appendCalls   int
	deleteCalled  bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{personas: map[string]*models.Persona{}}
}

func (d *fakeDB) CreatePersona(ctx context.Context, p *models.Persona) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.personas[p.ID] = &cp
	d.ops = append(d.ops, "create_persona")
	return nil
}

func (d *fakeDB) GetPersonaByID(ctx context.Context, id string) (*models.Persona, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	p, ok := d.personas[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	if d.enrichAtFetch > 0 && d.fetches >= d.enrichAtFetch {
		cp.ProfileData = json.RawMessage(`{"headline":"Senior PM","company":"Tech Startup"}`)
		cp.ArticlesData = json.RawMessage(`[{"title":"Shipping with conviction"}]`)
	}
	return &cp, nil
}

func (d *fakeDB) ListPersonasByUser(ctx context.Context, userID string) ([]models.Persona, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Persona
	for _, p := range d.personas {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (d *fakeDB) UpdatePersonaRawData(ctx context.Context, id string, profileData, articlesData []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.personas[id]
	if !ok {
		return core.NotFoundError("persona", id)
	}
	p.ProfileData = profileData
	p.ArticlesData = articlesData
	d.ops = append(d.ops, "update_raw")
	return nil
}

func (d *fakeDB) UpdatePersonaSummary(ctx context.Context, id string, summary *models.PersonaSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.summaryErr != nil {
		return d.summaryErr
	}
	p, ok := d.personas[id]
	if !ok {
		return core.NotFoundError("persona", id)
	}
	p.Summary = summary
	d.ops = append(d.ops, "update_summary")
	return nil
}

func (d *fakeDB) DeletePersona(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.personas[id]; !ok {
		return core.NotFoundError("persona", id)
	}
	// Conversations go first, then the persona row.
	kept := d.turns[:0]
	for _, t := range d.turns {
		if t.PersonaID != id {
			kept = append(kept, t)
		}
	}
	d.turns = kept
	delete(d.personas, id)
	d.deleteCalled = true
	d.ops = append(d.ops, "delete_persona")
	return nil
}

func (d *fakeDB) AppendTurn(ctx context.Context, turn *models.ConversationTurn) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendCalls++
	if d.appendErr != nil && (d.appendErrOn == 0 || d.appendCalls == d.appendErrOn) {
		return d.appendErr
	}
	cp := *turn
	d.turns = append(d.turns, &cp)
	d.ops = append(d.ops, "append_turn")
	return nil
}

func (d *fakeDB) ListTurns(ctx context.Context, personaID, sessionID string) ([]models.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.ConversationTurn
	for _, t := range d.turns {
		if t.PersonaID == personaID && t.SessionID == sessionID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// fakeLLM records every call and serves canned replies in order, repeating the
// last one once exhausted.
type fakeLLM struct {
	mu      sync.Mutex
	calls   [][]core.ChatMessage
	temps   []float64
	replies []string
	err     error
	errOn   int // 1-based call to fail on; 0 fails every call when err is set
}

func (l *fakeLLM) Chat(ctx context.Context, messages []core.ChatMessage, temperature float64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	call := len(l.calls) + 1
	l.calls = append(l.calls, messages)
	l.temps = append(l.temps, temperature)
	if l.err != nil && (l.errOn == 0 || l.errOn == call) {
		return "", l.err
	}
	if len(l.replies) == 0 {
		return "ok", nil
	}
	idx := call - 1
	if idx >= len(l.replies) {
		idx = len(l.replies) - 1
	}
	return l.replies[idx], nil
}

// fakeNotifier signals each notification on a channel so tests can wait for
// the detached trigger goroutine.
type fakeNotifier struct {
	notified chan string
	err      error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notified: make(chan string, 4)}
}

func (n *fakeNotifier) Notify(ctx context.Context, p *models.Persona) error {
	n.notified <- p.ID
	return n.err
}
