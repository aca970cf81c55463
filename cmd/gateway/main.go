package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nasoro/gateway/internal/gateway/grants"
	"github.com/nasoro/gateway/internal/gateway/guardian"
	"github.com/nasoro/gateway/internal/gateway/handlers"
	"github.com/nasoro/gateway/internal/gateway/providers"
	"github.com/nasoro/gateway/internal/gateway/quota"
	"github.com/nasoro/gateway/internal/gateway/session"
	"github.com/nasoro/gateway/internal/gateway/tiers"
	"github.com/nasoro/gateway/internal/shared/accesslog"
	"github.com/nasoro/gateway/internal/shared/banlog"
	"github.com/nasoro/gateway/internal/shared/config"
	"github.com/nasoro/gateway/internal/shared/database"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg.Env)
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting Nasoro gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable ban store, materialized into the guardian at startup
	banStore := banlog.New(cfg.BanFilePath)
	banned, err := banStore.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load ban log")
	}
	logger.Info().Int("bans", len(banned)).Str("file", cfg.BanFilePath).Msg("ban set loaded")

	// Access log sink: Postgres when configured, flat file otherwise
	var access accesslog.Sink
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		access = db
		logger.Info().Msg("access log: postgres")
	} else {
		sink, err := accesslog.NewFileSink(cfg.AccessLogPath, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open access log")
		}
		access = sink
		logger.Info().Str("file", cfg.AccessLogPath).Msg("access log: file")
	}
	defer access.Close()

	// Grant store: redis when configured, in-memory otherwise
	var grantStore grants.Store
	if cfg.RedisURL != "" {
		redisGrants, err := grants.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisGrants.Close()
		grantStore = redisGrants
		logger.Info().Msg("grant store: redis")
	} else {
		grantStore = grants.NewMemoryStore()
		logger.Info().Msg("grant store: in-memory")
	}

	guard := guardian.New(banStore, banned, logger, guardian.Options{
		BurstThreshold: cfg.BurstThreshold,
		BurstLookback:  cfg.BurstLookback,
	})
	quotaMgr := quota.New()
	sessions := session.New(cfg.SessionMaxTurns)
	registry := tiers.Default()

	providerMgr := providers.NewManager(cfg)
	logger.Info().Strs("providers", providerMgr.Names()).Msg("providers initialized")

	chatHandler := handlers.NewChatHandler(cfg, guard, quotaMgr, sessions, registry, grantStore, providerMgr, logger)
	adminHandler := handlers.NewAdminHandler(cfg.AdminKey, guard, logger)
	paymentHandler := handlers.NewPaymentHandler(registry, grantStore, logger)
	mw := handlers.NewMiddleware(access)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(90 * time.Second))
	r.Use(mw.CORSMiddleware)
	r.Use(mw.AccessLogMiddleware)

	// Liveness probe (no side effects)
	r.Get("/ping", handlePing)

	r.Post("/ai", chatHandler.HandleChat)
	r.Get("/admin/clear-bans", adminHandler.HandleClearBans)
	r.Post("/create-checkout", paymentHandler.HandleCreateCheckout)
	r.Post("/payments/confirm", paymentHandler.HandleConfirm)

	// Static SPA hosting when a public dir is configured
	if cfg.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
	} else {
		r.Get("/", handlePing)
	}

	// HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}
