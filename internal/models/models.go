package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Persona is one emulated person: the submitted identity, the raw enrichment
// payload written asynchronously by the external workflow, and the synthesized
// summary that makes it chat-ready.
type Persona struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Name         string          `db:"name" json:"name"`
	LinkedInURL  string          `db:"linkedin_url" json:"linkedin_url"`
	ProfileData  json.RawMessage `db:"profile_data" json:"profile_data,omitempty"`
	ArticlesData json.RawMessage `db:"articles_data" json:"articles_data,omitempty"`
	Summary      *PersonaSummary `db:"summary" json:"summary,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Enriched reports whether both raw payload fields normalize to non-empty
// documents, i.e. the external workflow has finished.
func (p *Persona) Enriched() bool {
	_, profileOK := NormalizeRawDoc(p.ProfileData)
	_, articlesOK := NormalizeRawDoc(p.ArticlesData)
	return profileOK && articlesOK
}

// ChatReady reports whether a chat session may be opened against this persona.
func (p *Persona) ChatReady() bool {
	return p.Summary != nil && !p.Summary.IsEmpty()
}

// StructuredSummary is the JSON contract the synthesis prompt asks the model
// for: a tag/list-based breakdown of the person.
type StructuredSummary struct {
	Name             string   `json:"name"`
	ShortBio         string   `json:"shortBio"`
	PersonalityTone  string   `json:"personalityTone"`
	Expertise        []string `json:"expertise"`
	CommonPhrases    []string `json:"commonPhrases"`
	WritingStyle     string   `json:"writingStyle"`
	CoreTopics       []string `json:"coreTopics"`
	ExampleResponses []string `json:"exampleResponses"`
}

// PersonaSummary is the derived summary stored on the persona row. Two shapes
// exist in the data: a structured extraction (PersonaSummary +
// ChatbotInstructions) and a single free-text Profile narrative, depending on
// whether the model's reply parsed as the structured contract. Exactly one arm
// is populated; GeneratedAt and Model record provenance for both.
type PersonaSummary struct {
	PersonaSummary      *StructuredSummary `json:"personaSummary,omitempty"`
	ChatbotInstructions string             `json:"chatbotInstructions,omitempty"`
	Profile             string             `json:"profile,omitempty"`
	GeneratedAt         time.Time          `json:"generated_at"`
	Model               string             `json:"model,omitempty"`
}

// IsEmpty reports whether neither summary arm carries content.
func (s *PersonaSummary) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.PersonaSummary == nil && s.ChatbotInstructions == "" && strings.TrimSpace(s.Profile) == ""
}

// Text renders the summary for embedding into a prompt: the narrative verbatim,
// or the structured arm serialized.
func (s *PersonaSummary) Text() string {
	if s == nil {
		return ""
	}
	if strings.TrimSpace(s.Profile) != "" {
		return s.Profile
	}
	b, err := json.MarshalIndent(struct {
		PersonaSummary      *StructuredSummary `json:"personaSummary,omitempty"`
		ChatbotInstructions string             `json:"chatbotInstructions,omitempty"`
	}{s.PersonaSummary, s.ChatbotInstructions}, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// ConversationTurn is one message in a persona chat session. Turns are
// insert-only and ordered by creation time within a session.
type ConversationTurn struct {
	ID        string    `db:"id" json:"id"`
	PersonaID string    `db:"persona_id" json:"persona_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	ByAI      bool      `db:"by_ai" json:"by_ai"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NormalizeRawDoc normalizes one raw enrichment field. The upstream workflow is
// inconsistent: a field may arrive as a structured document or as a
// JSON-encoded string wrapping one. A field counts as present only if, after
// unwrapping, it is a non-null object or array with at least one entry.
// Malformed input normalizes to absent, never to an error.
func NormalizeRawDoc(raw json.RawMessage) (json.RawMessage, bool) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		return nil, false
	}

	if doc[0] == '"' {
		var inner string
		if err := json.Unmarshal(doc, &inner); err != nil {
			return nil, false
		}
		return NormalizeRawDoc(json.RawMessage(inner))
	}

	switch doc[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(doc, &obj); err != nil || len(obj) == 0 {
			return nil, false
		}
		return doc, true
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(doc, &arr); err != nil || len(arr) == 0 {
			return nil, false
		}
		return doc, true
	}
	return nil, false
}
