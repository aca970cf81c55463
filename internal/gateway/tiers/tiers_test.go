package tiers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nasoro/gateway/internal/shared/apierr"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Config{
		{
			ID:             "basic",
			Provider:       "google",
			Model:          "gemini-2.0-flash",
			Limit:          10,
			Window:         time.Hour,
			PromptTemplate: "You are %s.",
			DefaultPersona: "Naso",
			Temperature:    0.7,
			HistoryDepth:   6,
		},
		{
			ID:             "fast",
			Provider:       "groq",
			Model:          "llama-3.3-70b-versatile",
			Limit:          2,
			Window:         time.Hour,
			PromptTemplate: "You are %s.",
			DefaultPersona: "Turbo",
			VisionModel:    "llama-3.2-90b-vision-preview",
			HistoryDepth:   4,
		},
		{
			ID:             "pro",
			Provider:       "openai",
			Model:          "gpt-4o",
			Paid:           true,
			Limit:          100,
			Window:         24 * time.Hour,
			PromptTemplate: "You are %s.",
			DefaultPersona: "Pro",
			HistoryDepth:   12,
		},
	}, "basic")
	require.NoError(t, err)
	return r
}

func noGrants(string) bool { return false }

func allGrants(string) bool { return true }

func TestUnknownTierResolvesToDefault(t *testing.T) {
	r := testRegistry(t)

	eff, err := r.Resolve("does-not-exist", false, "", noGrants)
	require.NoError(t, err)
	require.Equal(t, "basic", eff.Tier.ID)
	require.Equal(t, "gemini-2.0-flash", eff.Model)
}

func TestPersonaOverrideKeepsSafetyClause(t *testing.T) {
	r := testRegistry(t)

	eff, err := r.Resolve("basic", false, "Captain Blackbeard", noGrants)
	require.NoError(t, err)
	require.Contains(t, eff.SystemPrompt, "Captain Blackbeard")
	require.NotContains(t, eff.SystemPrompt, "Naso")
	require.Contains(t, eff.SystemPrompt, safetyClause)
}

func TestEmptyPersonaUsesTierDefault(t *testing.T) {
	r := testRegistry(t)

	eff, err := r.Resolve("basic", false, "", noGrants)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(eff.SystemPrompt, "You are Naso."))
}

func TestVisionOverrideOnlyWithImages(t *testing.T) {
	r := testRegistry(t)

	eff, err := r.Resolve("fast", true, "", noGrants)
	require.NoError(t, err)
	require.Equal(t, "llama-3.2-90b-vision-preview", eff.Model)

	eff, err = r.Resolve("fast", false, "", noGrants)
	require.NoError(t, err)
	require.Equal(t, "llama-3.3-70b-versatile", eff.Model)
}

func TestVisionCapableTierKeepsModel(t *testing.T) {
	r := testRegistry(t)

	// "basic" has no vision override: the base model accepts media.
	eff, err := r.Resolve("basic", true, "", noGrants)
	require.NoError(t, err)
	require.Equal(t, "gemini-2.0-flash", eff.Model)
}

func TestPaidTierRequiresGrant(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Resolve("pro", false, "", noGrants)
	require.ErrorIs(t, err, apierr.ErrUpgradeRequired)

	eff, err := r.Resolve("pro", false, "", allGrants)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", eff.Model)
}

func TestRegistryRejectsBadTables(t *testing.T) {
	_, err := NewRegistry([]Config{{ID: "a"}, {ID: "a"}}, "a")
	require.Error(t, err)

	_, err = NewRegistry([]Config{{ID: "a"}}, "missing")
	require.Error(t, err)
}

func TestDefaultRegistryIsWellFormed(t *testing.T) {
	r := Default()

	eff, err := r.Resolve("", false, "", noGrants)
	require.NoError(t, err)
	require.NotEmpty(t, eff.Provider)
	require.NotEmpty(t, eff.Model)
	require.Contains(t, eff.SystemPrompt, safetyClause)
}
