package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hatchai/hatch-backend/internal/core"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", core.ValidationError("name is required"), http.StatusBadRequest},
		{"not found", core.NotFoundError("persona", "p1"), http.StatusNotFound},
		{"not ready", fmt.Errorf("%w: summary missing", core.ErrNotReady), http.StatusConflict},
		{"upstream timeout", fmt.Errorf("%w: enrichment never completed", core.ErrUpstreamTimeout), http.StatusGatewayTimeout},
		{"persistence", core.PersistenceError("get persona", errors.New("db down")), http.StatusInternalServerError},
		{"rate limited upstream", &core.UpstreamStatusError{Service: "llm", Status: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"quota exhausted upstream", &core.UpstreamStatusError{Service: "llm", Status: http.StatusPaymentRequired}, http.StatusPaymentRequired},
		{"other upstream", &core.UpstreamStatusError{Service: "webhook", Status: http.StatusServiceUnavailable}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("error body missing")
			}
		})
	}
}

func TestChatHandlerRequiresAuthContext(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
