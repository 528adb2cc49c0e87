// Package config loads runtime configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers for the narrative writer.
const (
	ProviderNone      = "none"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Narrative writer
	LLMProvider      string
	LLMModel         string
	OllamaHost       string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	AWSRegion        string
	NarrativeLimit   int
	NarrativeNodes   int
	NarrativeTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Generation
	WeightsFile       string
	MaxNodes          int
	GenerationTimeout time.Duration
	Concurrency       int

	// Retries for extract fetch and publish
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration

	// Worker
	PollInterval time.Duration
	MetricsAddr  string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "branchcast"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "outcomes"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:      strings.ToLower(getEnv("BRANCHCAST_LLM_PROVIDER", ProviderNone)),
		LLMModel:         getEnv("BRANCHCAST_LLM_MODEL", "llama3.2"),
		OllamaHost:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		NarrativeLimit:   getEnvInt("BRANCHCAST_NARRATIVE_LIMIT", 20),
		NarrativeNodes:   getEnvInt("BRANCHCAST_NARRATIVE_NODE_LIMIT", 20),
		NarrativeTimeout: getEnvDuration("BRANCHCAST_NARRATIVE_TIMEOUT", 30*time.Second),

		LogFile:  getEnv("BRANCHCAST_LOG_FILE", "/tmp/branchcast.log"),
		LogLevel: parseLogLevel(getEnv("BRANCHCAST_LOG_LEVEL", "INFO")),

		WeightsFile:       getEnv("BRANCHCAST_WEIGHTS_FILE", ""),
		MaxNodes:          getEnvInt("BRANCHCAST_MAX_NODES", 50000),
		GenerationTimeout: getEnvDuration("BRANCHCAST_GENERATION_TIMEOUT", 2*time.Minute),
		Concurrency:       getEnvInt("BRANCHCAST_CONCURRENCY", 0),

		RetryMaxAttempts:     getEnvInt("BRANCHCAST_RETRY_MAX_ATTEMPTS", 4),
		RetryInitialInterval: getEnvDuration("BRANCHCAST_RETRY_INITIAL_INTERVAL", 200*time.Millisecond),

		PollInterval: getEnvDuration("BRANCHCAST_POLL_INTERVAL", 5*time.Second),
		MetricsAddr:  getEnv("BRANCHCAST_METRICS_ADDR", ":9090"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
