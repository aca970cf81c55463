// Package identity derives the client key every per-client map is
// joined on. The key is address-derived and unauthenticated: reliable
// enough for abuse defense, trivially wrong behind shared NAT. That
// weakness is inherited deliberately; see DESIGN.md.
package identity

import (
	"net"
	"net/http"
	"strings"
)

// Anonymous is the single bucket used when no identity at all can be
// resolved. The pipeline treats it like any other client rather than
// failing the request.
const Anonymous = "anonymous"

// FromRequest resolves a stable client key. Precedence: first hop of
// X-Forwarded-For, then the X-Client-ID header, then an explicit id the
// caller pulled from the request body, then the transport peer address.
func FromRequest(r *http.Request, explicitID string) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}

	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}

	if id := strings.TrimSpace(explicitID); id != "" {
		return id
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}

	return Anonymous
}
