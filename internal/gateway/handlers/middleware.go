package handlers

import (
	"net/http"
	"time"

	"github.com/nasoro/gateway/internal/gateway/identity"
	"github.com/nasoro/gateway/internal/shared/accesslog"
	"github.com/nasoro/gateway/internal/shared/models"
)

type Middleware struct {
	access accesslog.Sink
}

func NewMiddleware(access accesslog.Sink) *Middleware {
	return &Middleware{access: access}
}

// AccessLogMiddleware appends a diagnostic entry for every request,
// before any admission decision. The sink is fire-and-forget; a logging
// failure never blocks the pipeline.
func (m *Middleware) AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.access.Record(models.AccessLogEntry{
			Timestamp: time.Now(),
			ClientKey: identity.FromRequest(r, ""),
			Method:    r.Method,
			Path:      r.URL.Path,
		})
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware handles CORS
func (m *Middleware) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
