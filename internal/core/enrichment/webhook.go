package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/models"
)

// WebhookNotifier asks the external workflow automation service to scrape and
// populate a persona's raw payload. The call is one-way: the workflow writes
// back to the record store on its own schedule and the poller detects the
// result, so no response body is relied upon beyond HTTP success.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, log *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type webhookPayload struct {
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Data      webhookDataBody `json:"data"`
}

type webhookDataBody struct {
	PersonaID string `json:"personaId"`
	Name      string `json:"name"`
	SourceURL string `json:"sourceUrl"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, p *models.Persona) error {
	if n.url == "" {
		return fmt.Errorf("webhook url not configured")
	}

	body, err := json.Marshal(webhookPayload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "hatch.ai",
		Data: webhookDataBody{
			PersonaID: p.ID,
			Name:      p.Name,
			SourceURL: p.LinkedInURL,
			OwnerID:   p.UserID,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &core.UpstreamStatusError{Service: "enrichment webhook", Status: resp.StatusCode, Body: string(snippet)}
	}

	n.log.Info("enrichment webhook triggered", "persona_id", p.ID)
	return nil
}

var _ core.EnrichmentNotifier = (*WebhookNotifier)(nil)
