// Package apierr defines the gateway's request-failure taxonomy and its
// mapping to HTTP status codes. Client-facing messages are deliberately
// non-revealing: a banned caller is never told which signature or
// threshold tripped the ban.
package apierr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a request carries neither a message
	// nor images.
	ErrValidation = errors.New("message or images required")

	// ErrBanned is returned for clients already present in the ban set.
	ErrBanned = errors.New("access permanently denied")

	// ErrInjection is returned when a payload matches an injection
	// signature. The client is banned as a side effect.
	ErrInjection = errors.New("request rejected")

	// ErrBurst is returned when a client exceeds the burst threshold.
	// The client is banned as a side effect.
	ErrBurst = errors.New("request rejected")

	// ErrQuotaExceeded is returned when a tier's usage window is
	// exhausted. Recoverable once the window resets.
	ErrQuotaExceeded = errors.New("tier quota exceeded")

	// ErrUpgradeRequired is returned when a paid tier is requested
	// without an active grant.
	ErrUpgradeRequired = errors.New("upgrade required for this tier")
)

// Status maps a pipeline error to its HTTP status code. Unknown errors
// map to 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrBanned), errors.Is(err, ErrInjection), errors.Is(err, ErrBurst):
		return http.StatusForbidden
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpgradeRequired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
