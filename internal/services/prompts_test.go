package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hatchai/hatch-backend/internal/models"
)

func TestBuildPersonaPromptModes(t *testing.T) {
	t.Parallel()

	p := &models.Persona{
		ID: "p1", UserID: "u1", Name: "Jane Doe",
		LinkedInURL:  "https://linkedin.com/in/janedoe",
		ProfileData:  json.RawMessage(`{"headline":"Senior PM"}`),
		ArticlesData: json.RawMessage(`[{"title":"On roadmaps"}]`),
	}

	synth := BuildPersonaPrompt(p, ModeSynthesize)
	if !strings.Contains(synth, "personaSummary") || !strings.Contains(synth, "chatbotInstructions") {
		t.Fatal("synthesis prompt must carry the JSON output contract")
	}
	if !strings.Contains(synth, "Senior PM") || !strings.Contains(synth, "On roadmaps") {
		t.Fatal("dossier fields missing from prompt")
	}

	greet := BuildPersonaPrompt(p, ModeGreet)
	if strings.Contains(greet, "personaSummary") {
		t.Fatal("greeting prompt must not carry the synthesis contract")
	}
	if !strings.Contains(greet, "open the conversation") {
		t.Fatal("greeting prompt missing its task line")
	}

	chat := BuildPersonaPrompt(p, ModeChat)
	if strings.Contains(chat, "Your task right now") {
		t.Fatal("chat prompt must have no task tail")
	}
}

func TestBuildPersonaPromptEmbedsSummary(t *testing.T) {
	t.Parallel()

	p := &models.Persona{
		ID: "p1", UserID: "u1", Name: "Jane Doe",
		LinkedInURL:  "https://linkedin.com/in/janedoe",
		ProfileData:  json.RawMessage(`{"headline":"Senior PM"}`),
		ArticlesData: json.RawMessage(`[{"title":"On roadmaps"}]`),
		Summary:      &models.PersonaSummary{Profile: "A blunt, warm product leader."},
	}
	got := BuildPersonaPrompt(p, ModeChat)
	if !strings.Contains(got, "A blunt, warm product leader.") {
		t.Fatal("stored summary missing from prompt")
	}
}

func TestRawDocTextPlaceholder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  json.RawMessage
	}{
		{"nil", nil},
		{"null literal", json.RawMessage(`null`)},
		{"empty object", json.RawMessage(`{}`)},
		{"malformed", json.RawMessage(`{"headline":`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rawDocText(tc.raw)
			if !strings.Contains(got, "Limited data available") {
				t.Fatalf("rawDocText(%s) = %q, want placeholder", tc.raw, got)
			}
		})
	}
}

func TestRawDocTextUnwrapsStringEncoded(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`"{\"headline\":\"Senior PM\"}"`)
	got := rawDocText(raw)
	if !strings.Contains(got, "Senior PM") {
		t.Fatalf("string-encoded payload not unwrapped: %q", got)
	}
}

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Fatalf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
