package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/models"
)

// Poller waits for the external workflow to populate both raw payload fields
// on a persona row. The workflow writes on its own schedule (results callback
// or direct database write), so bounded re-reading of the row is the
// coordination primitive for a blocked initialization request.
type Poller struct {
	db          core.DbClient
	interval    time.Duration
	maxAttempts int
	log         *logger.Logger
}

func NewPoller(db core.DbClient, interval time.Duration, maxAttempts int, log *logger.Logger) *Poller {
	return &Poller{db: db, interval: interval, maxAttempts: maxAttempts, log: log}
}

// WaitForEnrichment blocks until the persona's profile and articles fields
// both normalize to non-empty documents, checking once per interval for up to
// the configured attempt budget. It returns the enriched row on success and
// ErrUpstreamTimeout once the budget is exhausted. A missing row is retried:
// the persona was just inserted and replication may lag. The wait honors ctx
// so a torn-down caller does not leak the loop.
func (p *Poller) WaitForEnrichment(ctx context.Context, personaID string) (*models.Persona, error) {
	if personaID == "" {
		return nil, core.ValidationError("persona id is required")
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		persona, err := p.db.GetPersonaByID(ctx, personaID)
		if err != nil {
			lastErr = err
			p.log.Warn("enrichment poll fetch failed", "persona_id", personaID, "attempt", attempt, "error", err)
			continue
		}
		if persona == nil {
			p.log.Debug("enrichment poll: row not visible yet", "persona_id", personaID, "attempt", attempt)
			continue
		}
		if persona.Enriched() {
			p.log.Info("enrichment complete", "persona_id", personaID, "attempts", attempt)
			return persona, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: persona %s after %d attempts (last error: %v)",
			core.ErrUpstreamTimeout, personaID, p.maxAttempts, lastErr)
	}
	return nil, fmt.Errorf("%w: persona %s after %d attempts", core.ErrUpstreamTimeout, personaID, p.maxAttempts)
}
