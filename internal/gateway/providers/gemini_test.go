package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nasoro/gateway/internal/shared/models"
)

func geminiServer(t *testing.T, status int, body string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello "},{"text":"there"}]},"finishReason":"STOP"}]}`,
		&got)
	defer srv.Close()

	a := NewGeminiWithBaseURL("test-key", srv.URL)
	res, err := a.Generate(context.Background(), Request{
		Model:        "gemini-2.0-flash",
		SystemPrompt: "You are Naso.",
		History: []models.Turn{
			{Role: models.RoleUser, Content: "hi"},
			{Role: models.RoleAssistant, Content: "hello!"},
		},
		UserText:    "what now?",
		Temperature: 0.7,
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", res.Text)

	// System prompt leads as a user turn, assistant history maps to
	// role "model".
	require.Len(t, got.Contents, 4)
	require.Equal(t, "user", got.Contents[0].Role)
	require.Equal(t, "You are Naso.", got.Contents[0].Parts[0].Text)
	require.Equal(t, "model", got.Contents[2].Role)
	require.Equal(t, "what now?", got.Contents[3].Parts[0].Text)
}

func TestGeminiInlineImages(t *testing.T) {
	var got geminiRequest
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"a cat"}]}}]}`,
		&got)
	defer srv.Close()

	a := NewGeminiWithBaseURL("test-key", srv.URL)
	_, err := a.Generate(context.Background(), Request{
		Model:  "gemini-2.0-flash",
		Images: []string{"data:image/png;base64,AAAA"},
	})
	require.NoError(t, err)

	last := got.Contents[len(got.Contents)-1]
	require.Len(t, last.Parts, 1)
	require.NotNil(t, last.Parts[0].InlineData)
	require.Equal(t, "image/png", last.Parts[0].InlineData.MimeType)
	require.Equal(t, "AAAA", last.Parts[0].InlineData.Data)
}

func TestGeminiUpstreamFailureIsProviderError(t *testing.T) {
	srv := geminiServer(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`, nil)
	defer srv.Close()

	a := NewGeminiWithBaseURL("test-key", srv.URL)
	_, err := a.Generate(context.Background(), Request{Model: "gemini-2.0-flash", UserText: "hi"})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	require.Equal(t, "google", perr.Provider)
}

func TestGeminiEmptyCandidatesIsProviderError(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"candidates":[]}`, nil)
	defer srv.Close()

	a := NewGeminiWithBaseURL("test-key", srv.URL)
	_, err := a.Generate(context.Background(), Request{Model: "gemini-2.0-flash", UserText: "hi"})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
}

func TestParseDataURI(t *testing.T) {
	data, ok := parseDataURI("data:image/jpeg;base64,abc123")
	require.True(t, ok)
	require.Equal(t, "image/jpeg", data.MimeType)
	require.Equal(t, "abc123", data.Data)

	_, ok = parseDataURI("https://example.com/cat.png")
	require.False(t, ok)

	_, ok = parseDataURI("data:image/png;base64")
	require.False(t, ok)
}
