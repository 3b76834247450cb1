package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hatchai/hatch-backend/internal/core"
)

// OpenAILLM talks to any OpenAI-compatible chat-completions gateway. The base
// URL is configurable so the same client serves api.openai.com and hosted
// gateways that speak the same wire format.
type OpenAILLM struct {
	client    openai.Client
	modelName string
}

func NewOpenAILLM(apiKey, baseURL, modelName string) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm api key is empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &OpenAILLM{client: openai.NewClient(opts...), modelName: modelName}, nil
}

func (o *OpenAILLM) Chat(ctx context.Context, messages []core.ChatMessage, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.modelName),
		Temperature: openai.Float(temperature),
		Messages:    toOpenAIMessages(messages),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", &core.UpstreamStatusError{Service: "llm gateway", Status: apierr.StatusCode, Body: apierr.Message}
		}
		return "", fmt.Errorf("llm gateway request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm gateway returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []core.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

var _ core.LLMProvider = (*OpenAILLM)(nil)
