package providers

import (
	"context"
	"fmt"

	"github.com/nasoro/gateway/internal/shared/models"
)

// Request is the provider-neutral shape of one generation call. The
// router builds it from the effective tier config and the client's
// session history.
type Request struct {
	Model        string
	SystemPrompt string
	History      []models.Turn
	UserText     string
	Images       []string // data-URI encoded
	Temperature  float32
}

// Result is a completed generation.
type Result struct {
	Text   string
	Images []string
}

// Adapter is the uniform interface all providers implement.
// Implementations are fail-fast: no automatic retries, bounded
// timeouts, and upstream failures surfaced as *ProviderError.
type Adapter interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// ProviderError carries an upstream failure without leaking it to the
// client; the handler returns a sanitized message and logs this one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
