package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server
	Port string
	Env  string

	// Admin
	AdminKey string
	OwnerID  string

	// Durable storage
	BanFilePath   string
	AccessLogPath string
	DatabaseURL   string
	RedisURL      string

	// Provider API Keys
	OpenAIAPIKey     string
	GeminiAPIKey     string
	GroqAPIKey       string
	OpenRouterAPIKey string

	// Guardian
	BurstThreshold int
	BurstLookback  time.Duration

	// Sessions
	SessionMaxTurns int

	// Static assets
	PublicDir string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "3000"),
		Env:              getEnv("ENV", "development"),
		AdminKey:         getEnv("ADMIN_KEY", ""),
		OwnerID:          getEnv("OWNER_ID", ""),
		BanFilePath:      getEnv("BAN_FILE", "data/banned.txt"),
		AccessLogPath:    getEnv("ACCESS_LOG_FILE", "data/access.log"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		BurstThreshold:   getEnvInt("BURST_THRESHOLD", 20),
		BurstLookback:    time.Duration(getEnvInt("BURST_LOOKBACK_SECONDS", 10)) * time.Second,
		SessionMaxTurns:  getEnvInt("SESSION_MAX_TURNS", 20),
		PublicDir:        getEnv("PUBLIC_DIR", ""),
	}

	// Validate required fields
	if cfg.AdminKey == "" {
		return nil, fmt.Errorf("ADMIN_KEY is required")
	}

	// At least one provider API key is required
	if cfg.OpenAIAPIKey == "" && cfg.GeminiAPIKey == "" && cfg.GroqAPIKey == "" && cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("at least one provider API key is required (OPENAI_API_KEY, GEMINI_API_KEY, GROQ_API_KEY, or OPENROUTER_API_KEY)")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
