package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	Port        string
	JWTSecret   string

	LLMProvider  string // "openai" (any OpenAI-compatible gateway) or "gemini"
	LLMAPIKey    string
	LLMBaseURL   string
	ChatModel    string

	WebhookURL     string
	WebhookTimeout time.Duration
	// EnrichmentToken guards the workflow's results callback; leaving it
	// unset disables the endpoint (the workflow then writes to the database
	// directly).
	EnrichmentToken string

	PollInterval    time.Duration
	PollMaxAttempts int

	// CleanupOnFailure deletes the partial persona row when synthesis fails;
	// the default preserves it for a manual retry.
	CleanupOnFailure bool

	LogMode string
}

// LoadConfig loads the environment variables and returns config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		ChatModel:   getEnv("CHAT_MODEL", "gpt-4o-mini"),

		WebhookURL:      getEnv("N8N_WEBHOOK_URL", ""),
		WebhookTimeout:  time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 15)) * time.Second,
		EnrichmentToken: getEnv("ENRICHMENT_CALLBACK_TOKEN", ""),

		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 24),

		CleanupOnFailure: getEnvBool("CLEANUP_ON_FAILURE", false),

		LogMode: getEnv("LOG_MODE", "dev"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %v", key, v, def)
		return def
	}
	return b
}
