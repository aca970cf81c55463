package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	requestTimeout = 60 * time.Second
)

// CompatAdapter serves every OpenAI-wire-compatible provider: OpenAI
// itself, Groq, and OpenRouter differ only in base URL and API key.
type CompatAdapter struct {
	name   string
	client *openai.Client
}

func newCompat(name, apiKey, baseURL string) *CompatAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &CompatAdapter{name: name, client: openai.NewClientWithConfig(cfg)}
}

func NewOpenAI(apiKey string) *CompatAdapter {
	return newCompat("openai", apiKey, "")
}

func NewGroq(apiKey string) *CompatAdapter {
	return newCompat("groq", apiKey, groqBaseURL)
}

func NewOpenRouter(apiKey string) *CompatAdapter {
	return newCompat("openrouter", apiKey, openRouterBaseURL)
}

func (p *CompatAdapter) Name() string {
	return p.name
}

func (p *CompatAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.SystemPrompt,
	})
	for _, turn := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, p.userMessage(req))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: p.name, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return nil, &ProviderError{Provider: p.name, Message: err.Error()}
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.name, Message: "empty choice list"}
	}

	return &Result{Text: resp.Choices[0].Message.Content}, nil
}

// userMessage builds the final user turn, as multi-part content when
// the request carries images.
func (p *CompatAdapter) userMessage(req Request) openai.ChatCompletionMessage {
	if len(req.Images) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserText,
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	if req.UserText != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: req.UserText,
		})
	}
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: img},
		})
	}

	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}
