package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hatchai/hatch-backend/internal/core"
)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Chat maps the gateway message contract onto Gemini: the leading system
// message becomes the system instruction, prior turns become chat history, and
// the final user message is sent.
func (g *GeminiLLM) Chat(ctx context.Context, messages []core.ChatMessage, temperature float64) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("empty message list")
	}

	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(float32(temperature))

	rest := messages
	if rest[0].Role == core.RoleSystem {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(rest[0].Content)},
		}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", fmt.Errorf("no user message to send")
	}

	last := rest[len(rest)-1]
	cs := m.StartChat()
	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == core.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
