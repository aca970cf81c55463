package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nasoro/gateway/internal/shared/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter handles Google Gemini API requests
type GeminiAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// geminiRequest represents a request to Gemini's API
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// NewGemini creates a new Gemini adapter
func NewGemini(apiKey string) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// NewGeminiWithBaseURL points the adapter at a different endpoint, for
// tests.
func NewGeminiWithBaseURL(apiKey, baseURL string) *GeminiAdapter {
	a := NewGemini(apiKey)
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

func (p *GeminiAdapter) Name() string {
	return "google"
}

func (p *GeminiAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(p.convertRequest(req))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("encode request: %v", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, req.Model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("parse response: %v", err)}
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty candidate list"}
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return &Result{Text: text.String()}, nil
}

// convertRequest maps the neutral request into Gemini's contents shape.
// Gemini has no system role: the system prompt becomes a leading user
// turn, and assistant turns map to role "model".
func (p *GeminiAdapter) convertRequest(req Request) geminiRequest {
	contents := make([]geminiContent, 0, len(req.History)+2)

	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: req.SystemPrompt}},
	})

	for _, turn := range req.History {
		role := "user"
		if turn.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}

	parts := make([]geminiPart, 0, len(req.Images)+1)
	if req.UserText != "" {
		parts = append(parts, geminiPart{Text: req.UserText})
	}
	for _, img := range req.Images {
		if data, ok := parseDataURI(img); ok {
			parts = append(parts, geminiPart{InlineData: data})
		}
	}
	contents = append(contents, geminiContent{Role: "user", Parts: parts})

	return geminiRequest{
		Contents:         contents,
		GenerationConfig: &geminiGenerationConfig{Temperature: req.Temperature},
	}
}

// parseDataURI splits "data:<mime>;base64,<payload>" into inline data.
// Malformed URIs are skipped rather than failing the request.
func parseDataURI(uri string) (*geminiInlineData, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, false
	}
	rest := strings.TrimPrefix(uri, "data:")
	mimeAndEnc, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, false
	}
	mime := strings.TrimSuffix(mimeAndEnc, ";base64")
	if mime == "" || payload == "" {
		return nil, false
	}
	return &geminiInlineData{MimeType: mime, Data: payload}, true
}
