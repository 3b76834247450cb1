package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/models"
)

func testPersona() *models.Persona {
	return &models.Persona{
		ID:          "p1",
		UserID:      "u1",
		Name:        "Jane Doe",
		LinkedInURL: "https://linkedin.com/in/janedoe",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifierPayload(t *testing.T) {
	t.Parallel()

	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 5*time.Second, logger.NewNop())
	if err := n.Notify(context.Background(), testPersona()); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got.Source != "hatch.ai" {
		t.Fatalf("source = %q, want hatch.ai", got.Source)
	}
	if got.Timestamp == "" {
		t.Fatal("timestamp missing")
	}
	if got.Data.PersonaID != "p1" || got.Data.OwnerID != "u1" || got.Data.SourceURL != "https://linkedin.com/in/janedoe" {
		t.Fatalf("data = %+v", got.Data)
	}
}

func TestWebhookNotifierUpstreamStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow disabled", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 5*time.Second, logger.NewNop())
	err := n.Notify(context.Background(), testPersona())
	ue, ok := core.AsUpstreamStatus(err)
	if !ok {
		t.Fatalf("err = %v, want UpstreamStatusError", err)
	}
	if ue.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", ue.Status)
	}
}

func TestWebhookNotifierUnconfigured(t *testing.T) {
	t.Parallel()

	n := NewWebhookNotifier("", time.Second, logger.NewNop())
	if err := n.Notify(context.Background(), testPersona()); err == nil {
		t.Fatal("expected error for unconfigured webhook url")
	}
}
