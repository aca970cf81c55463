package models

import "time"

// Role values for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation entry kept in a client's session.
// Sessions are text-only; when a request carried images the stored
// content is a placeholder, never the raw payload.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BanRecord describes a permanent ban decision for a client key.
// The durable ban log stores only the client key (newline-delimited);
// reason and timestamp are diagnostic.
type BanRecord struct {
	ClientKey string
	Reason    string
	Timestamp time.Time
}

// AccessLogEntry is a diagnostic record of an inbound request.
// Written on a best-effort basis and never read back by the gateway.
type AccessLogEntry struct {
	Timestamp time.Time
	ClientKey string
	Method    string
	Path      string
}

// CheckoutSession is a pending mock checkout created by /create-checkout.
// Confirming it via /payments/confirm records a tier grant.
type CheckoutSession struct {
	ID        string
	ClientKey string
	Tier      string
	CreatedAt time.Time
}
