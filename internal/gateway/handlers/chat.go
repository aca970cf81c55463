package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/gateway/grants"
	"github.com/nasoro/gateway/internal/gateway/guardian"
	"github.com/nasoro/gateway/internal/gateway/identity"
	"github.com/nasoro/gateway/internal/gateway/providers"
	"github.com/nasoro/gateway/internal/gateway/quota"
	"github.com/nasoro/gateway/internal/gateway/session"
	"github.com/nasoro/gateway/internal/gateway/tiers"
	"github.com/nasoro/gateway/internal/shared/apierr"
	"github.com/nasoro/gateway/internal/shared/config"
)

const (
	maxRequestBytes = 10 << 20 // data-URI images are large
	providerTimeout = 60 * time.Second

	upgradeReply  = "This tier needs an active subscription. Create a checkout session to unlock it."
	providerReply = "The AI service is temporarily unavailable. Please try again in a moment."
)

// AdapterRegistry resolves a provider id to its adapter. Satisfied by
// providers.Manager; replaced with a stub in tests.
type AdapterRegistry interface {
	Get(provider string) (providers.Adapter, error)
}

// ChatHandler runs the admission pipeline for POST /ai: identity
// resolution, guardian, validation, tier resolution, quota, then the
// provider call bracketed by a session read and append.
type ChatHandler struct {
	cfg      *config.Config
	guardian *guardian.Guardian
	quota    *quota.Manager
	sessions *session.Store
	registry *tiers.Registry
	grants   grants.Store
	adapters AdapterRegistry
	log      zerolog.Logger
}

func NewChatHandler(
	cfg *config.Config,
	g *guardian.Guardian,
	q *quota.Manager,
	s *session.Store,
	registry *tiers.Registry,
	grantStore grants.Store,
	adapters AdapterRegistry,
	log zerolog.Logger,
) *ChatHandler {
	return &ChatHandler{
		cfg:      cfg,
		guardian: g,
		quota:    q,
		sessions: s,
		registry: registry,
		grants:   grantStore,
		adapters: adapters,
		log:      log,
	}
}

type chatRequest struct {
	Message       string   `json:"message"`
	Images        []string `json:"images"`
	Tier          string   `json:"tier"`
	Model         string   `json:"model"` // legacy alias for tier
	CustomPersona string   `json:"customPersona"`
	UserID        string   `json:"userId"`
}

type chatResponse struct {
	Reply  string   `json:"reply"`
	Images []string `json:"images,omitempty"`
}

// HandleChat handles POST /ai
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large")
		return
	}

	// A malformed body still goes through the guardian: the raw bytes
	// are what gets scanned for injection signatures.
	var req chatRequest
	_ = json.Unmarshal(raw, &req)

	clientKey := identity.FromRequest(r, req.UserID)

	if err := h.guardian.Check(clientKey, raw); err != nil {
		writeError(w, apierr.Status(err), err.Error())
		return
	}

	if req.Message == "" && len(req.Images) == 0 {
		writeError(w, apierr.Status(apierr.ErrValidation), apierr.ErrValidation.Error())
		return
	}

	tierID := req.Tier
	if tierID == "" {
		tierID = req.Model
	}

	owner := h.cfg.OwnerID != "" && clientKey == h.cfg.OwnerID
	hasImages := len(req.Images) > 0

	eff, err := h.registry.Resolve(tierID, hasImages, req.CustomPersona, func(tid string) bool {
		return owner || h.grants.Has(r.Context(), clientKey, tid)
	})
	if err != nil {
		if errors.Is(err, apierr.ErrUpgradeRequired) {
			// Soft failure: legacy clients only render the reply string.
			writeJSON(w, http.StatusOK, chatResponse{Reply: upgradeReply})
			return
		}
		writeError(w, apierr.Status(err), err.Error())
		return
	}

	if !h.quota.TryConsume(clientKey, eff.Tier.ID, eff.Tier.Limit, eff.Tier.Window, owner) {
		w.Header().Set("X-Quota-Limit", strconv.Itoa(eff.Tier.Limit))
		w.Header().Set("X-Quota-Remaining", "0")
		writeError(w, apierr.Status(apierr.ErrQuotaExceeded), apierr.ErrQuotaExceeded.Error())
		return
	}
	w.Header().Set("X-Quota-Limit", strconv.Itoa(eff.Tier.Limit))
	w.Header().Set("X-Quota-Remaining", strconv.Itoa(h.quota.Remaining(clientKey, eff.Tier.ID, eff.Tier.Limit, eff.Tier.Window)))

	adapter, err := h.adapters.Get(eff.Provider)
	if err != nil {
		h.log.Error().Err(err).Str("tier", eff.Tier.ID).Msg("no adapter for tier")
		writeError(w, http.StatusInternalServerError, providerReply)
		return
	}

	history := h.sessions.Read(clientKey, eff.HistoryDepth)

	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()

	result, err := adapter.Generate(ctx, providers.Request{
		Model:        eff.Model,
		SystemPrompt: eff.SystemPrompt,
		History:      history,
		UserText:     req.Message,
		Images:       req.Images,
		Temperature:  eff.Temperature,
	})
	if err != nil {
		// The session is not mutated on failure: no partial turn.
		h.log.Error().Err(err).Str("client", clientKey).Str("provider", eff.Provider).Msg("provider call failed")
		writeError(w, http.StatusInternalServerError, providerReply)
		return
	}

	userTurn := req.Message
	if userTurn == "" {
		userTurn = session.ImagePlaceholder
	}
	h.sessions.Append(clientKey, userTurn, result.Text)

	writeJSON(w, http.StatusOK, chatResponse{Reply: result.Text, Images: result.Images})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
