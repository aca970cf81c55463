package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardedForTakesPrecedence(t *testing.T) {
	r := httptest.NewRequest("POST", "/ai", nil)
	r.RemoteAddr = "192.0.2.9:4444"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Client-ID", "abc")

	require.Equal(t, "203.0.113.7", FromRequest(r, "body-id"))
}

func TestClientIDHeaderBeforeBodyID(t *testing.T) {
	r := httptest.NewRequest("POST", "/ai", nil)
	r.Header.Set("X-Client-ID", "header-id")

	require.Equal(t, "header-id", FromRequest(r, "body-id"))
}

func TestBodyIDBeforePeerAddress(t *testing.T) {
	r := httptest.NewRequest("POST", "/ai", nil)
	r.RemoteAddr = "192.0.2.9:4444"

	require.Equal(t, "body-id", FromRequest(r, "body-id"))
}

func TestPeerAddressStripsPort(t *testing.T) {
	r := httptest.NewRequest("POST", "/ai", nil)
	r.RemoteAddr = "192.0.2.9:4444"

	require.Equal(t, "192.0.2.9", FromRequest(r, ""))
}

func TestAnonymousFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/ai", nil)
	r.RemoteAddr = ""

	require.Equal(t, Anonymous, FromRequest(r, ""))
}
