package providers

import (
	"fmt"
	"sort"

	"github.com/nasoro/gateway/internal/shared/config"
)

// Manager holds the adapters for every provider with a configured API
// key, keyed by provider id as used in tier configs.
type Manager struct {
	adapters map[string]Adapter
}

// NewManager creates a new provider manager
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{adapters: make(map[string]Adapter)}

	// Initialize adapters based on available API keys
	if cfg.OpenAIAPIKey != "" {
		m.adapters["openai"] = NewOpenAI(cfg.OpenAIAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		m.adapters["google"] = NewGemini(cfg.GeminiAPIKey)
	}
	if cfg.GroqAPIKey != "" {
		m.adapters["groq"] = NewGroq(cfg.GroqAPIKey)
	}
	if cfg.OpenRouterAPIKey != "" {
		m.adapters["openrouter"] = NewOpenRouter(cfg.OpenRouterAPIKey)
	}

	return m
}

// Get returns the adapter for a provider id.
func (m *Manager) Get(provider string) (Adapter, error) {
	a, ok := m.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured (check API key)", provider)
	}
	return a, nil
}

// Names lists configured providers, sorted for stable logging.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
