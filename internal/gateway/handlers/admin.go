package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/gateway/grants"
	"github.com/nasoro/gateway/internal/gateway/guardian"
	"github.com/nasoro/gateway/internal/gateway/identity"
	"github.com/nasoro/gateway/internal/gateway/tiers"
	"github.com/nasoro/gateway/internal/shared/models"
)

// AdminHandler serves the administrative surface.
type AdminHandler struct {
	adminKey string
	guardian *guardian.Guardian
	log      zerolog.Logger
}

func NewAdminHandler(adminKey string, g *guardian.Guardian, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminKey: adminKey, guardian: g, log: log}
}

// HandleClearBans handles GET /admin/clear-bans?key=. An exact key
// match clears both the in-memory ban set and the durable store; a
// mismatch changes nothing.
func (h *AdminHandler) HandleClearBans(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if h.adminKey == "" || key != h.adminKey {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.guardian.ClearBans(); err != nil {
		h.log.Error().Err(err).Msg("clear bans failed")
		writeError(w, http.StatusInternalServerError, "could not clear bans")
		return
	}

	h.log.Info().Msg("ban state cleared by admin")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PaymentHandler is the mock checkout flow: /create-checkout issues a
// pending session, /payments/confirm records the tier grant the router
// consumes. It stands in for a real billing webhook.
type PaymentHandler struct {
	registry *tiers.Registry
	grants   grants.Store
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]models.CheckoutSession
}

func NewPaymentHandler(registry *tiers.Registry, grantStore grants.Store, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		registry: registry,
		grants:   grantStore,
		log:      log,
		pending:  make(map[string]models.CheckoutSession),
	}
}

// HandleCreateCheckout handles POST /create-checkout
func (h *PaymentHandler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier   string `json:"tier"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, ok := h.registry.Get(req.Tier)
	if !ok || !cfg.Paid {
		writeError(w, http.StatusBadRequest, "unknown or non-paid tier")
		return
	}

	cs := models.CheckoutSession{
		ID:        uuid.NewString(),
		ClientKey: identity.FromRequest(r, req.UserID),
		Tier:      cfg.ID,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.pending[cs.ID] = cs
	h.mu.Unlock()

	h.log.Info().Str("tier", cs.Tier).Str("session", cs.ID).Msg("checkout session created")

	writeJSON(w, http.StatusOK, map[string]string{
		"url":       "https://pay.nasoro.app/checkout/" + cs.ID,
		"sessionId": cs.ID,
	})
}

// HandleConfirm handles POST /payments/confirm
func (h *PaymentHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	cs, ok := h.pending[req.SessionID]
	if ok {
		delete(h.pending, req.SessionID)
	}
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown checkout session")
		return
	}

	if err := h.grants.Grant(r.Context(), cs.ClientKey, cs.Tier); err != nil {
		h.log.Error().Err(err).Str("session", cs.ID).Msg("grant write failed")
		writeError(w, http.StatusInternalServerError, "could not record grant")
		return
	}

	h.log.Info().Str("client", cs.ClientKey).Str("tier", cs.Tier).Msg("tier grant recorded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "granted", "tier": cs.Tier})
}
