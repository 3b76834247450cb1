package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/services"
)

func newCallbackHandler(token string) *EnrichmentHandler {
	svc := services.NewPersonaService(nil, nil, nil, nil, logger.NewNop(), "gpt-4o-mini", false)
	return NewEnrichmentHandler(svc, token)
}

func TestEnrichmentCallbackDisabledWithoutToken(t *testing.T) {
	t.Parallel()

	h := newCallbackHandler("")
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/enrichment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when the callback is not configured", rec.Code)
	}
}

func TestEnrichmentCallbackRejectsBadToken(t *testing.T) {
	t.Parallel()

	h := newCallbackHandler("secret")
	cases := []struct {
		name, token string
	}{
		{"missing token", ""},
		{"wrong token", "guess"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/enrichment", strings.NewReader(`{}`))
			if tc.token != "" {
				req.Header.Set("X-Webhook-Token", tc.token)
			}
			rec := httptest.NewRecorder()
			h.Complete(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestEnrichmentCallbackValidatesBody(t *testing.T) {
	t.Parallel()

	h := newCallbackHandler("secret")
	cases := []struct {
		name, body string
	}{
		{"malformed json", `{"persona_id":`},
		{"missing persona id", `{"profile_data":{"headline":"PM"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/enrichment", strings.NewReader(tc.body))
			req.Header.Set("X-Webhook-Token", "secret")
			rec := httptest.NewRecorder()
			h.Complete(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}
