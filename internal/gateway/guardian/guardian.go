// Package guardian is the layered admission defense: blacklist check,
// payload-injection scan, burst detection, and auto-ban with durable
// escalation. It runs before quota or routing; a BLOCK here means no
// provider call and no quota consumption.
package guardian

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/shared/apierr"
	"github.com/nasoro/gateway/internal/shared/models"
)

// BanStore is the durable side of the ban set.
type BanStore interface {
	Append(rec models.BanRecord) error
	Clear() error
}

// injectionSignatures is the fixed set of payload patterns that trigger
// an immediate ban. Matching is case-insensitive over the serialized
// request body.
var injectionSignatures = []string{
	"<script",
	"</script",
	"javascript:",
	"onerror=",
	"union select",
	"drop table",
	"insert into",
	"delete from",
	"' or '1'='1",
	"process.env",
	"child_process",
	"document.cookie",
	"window.localstorage",
	"/etc/passwd",
	"eval(",
	"exec(",
}

const (
	reasonInjection = "payload injection"
	reasonBurst     = "burst/DDoS"
)

type Options struct {
	// BurstThreshold is the number of requests allowed inside the
	// lookback window; one more triggers a ban. Default 20.
	BurstThreshold int
	// BurstLookback is the rolling window for burst detection.
	// Default 10s.
	BurstLookback time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Guardian holds the in-memory ban set (materialized from the durable
// log at startup) and the per-client traffic windows. A single lock
// covers both: ban writes are rare and traffic pruning is cheap.
type Guardian struct {
	mu      sync.Mutex
	banned  map[string]struct{}
	traffic map[string][]time.Time

	store     BanStore
	threshold int
	lookback  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func New(store BanStore, banned map[string]struct{}, log zerolog.Logger, opts Options) *Guardian {
	if banned == nil {
		banned = make(map[string]struct{})
	}
	if opts.BurstThreshold <= 0 {
		opts.BurstThreshold = 20
	}
	if opts.BurstLookback <= 0 {
		opts.BurstLookback = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Guardian{
		banned:    banned,
		traffic:   make(map[string][]time.Time),
		store:     store,
		threshold: opts.BurstThreshold,
		lookback:  opts.BurstLookback,
		now:       opts.Now,
		log:       log,
	}
}

// Check runs the defense pipeline for one request. A nil return means
// ALLOW. Stage order is fixed: blacklist, payload scan, burst
// detection. Stages 2 and 3 escalate to a permanent ban on trigger.
func (g *Guardian) Check(clientKey string, payload []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.banned[clientKey]; ok {
		return apierr.ErrBanned
	}

	if matchesInjection(payload) {
		g.escalate(clientKey, reasonInjection)
		return apierr.ErrInjection
	}

	if g.recordAndDetectBurst(clientKey) {
		g.escalate(clientKey, reasonBurst)
		return apierr.ErrBurst
	}

	return nil
}

// IsBanned reports current ban-set membership.
func (g *Guardian) IsBanned(clientKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.banned[clientKey]
	return ok
}

// ClearBans resets both the in-memory set and the durable store.
func (g *Guardian) ClearBans() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Clear(); err != nil {
		return err
	}
	g.banned = make(map[string]struct{})
	g.traffic = make(map[string][]time.Time)
	return nil
}

func matchesInjection(payload []byte) bool {
	body := strings.ToLower(string(payload))
	for _, sig := range injectionSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}

// recordAndDetectBurst appends the current timestamp to the client's
// traffic window, prunes entries older than the lookback, and reports
// whether the pruned count exceeds the threshold. Caller holds g.mu.
func (g *Guardian) recordAndDetectBurst(clientKey string) bool {
	now := g.now()
	cutoff := now.Add(-g.lookback)

	window := append(g.traffic[clientKey], now)
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	g.traffic[clientKey] = kept

	return len(kept) > g.threshold
}

// escalate adds the client to the ban set and appends a durable record.
// Idempotent: an already-banned client never produces a second write.
// Caller holds g.mu.
func (g *Guardian) escalate(clientKey, reason string) {
	if _, ok := g.banned[clientKey]; ok {
		return
	}
	g.banned[clientKey] = struct{}{}
	delete(g.traffic, clientKey)

	rec := models.BanRecord{ClientKey: clientKey, Reason: reason, Timestamp: g.now()}
	if err := g.store.Append(rec); err != nil {
		g.log.Error().Err(err).Str("client", clientKey).Msg("ban append failed")
	}
	g.log.Warn().Str("client", clientKey).Str("reason", reason).Msg("client banned")
}
