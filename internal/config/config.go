// Package config provides application configuration management.
// It loads settings from a .env file, an optional YAML ranking file and
// environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Ranking tunables (YAML file, then env overrides)
	ConfigFile string
	Ranking    RankingConfig

	// Warehouse Configuration
	WarehousePath string // SQLite file, used when WarehouseDSN is empty
	WarehouseDSN  string // PostgreSQL connection string

	// LLM Configuration
	UseLLM        bool     // CLI default for model-backed parsing
	LLMProviders  []string // Provider priority order
	LLMTimeout    time.Duration
	LLMRateBurst  float64
	LLMRateRefill float64 // tokens per hour

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	GroqAPIKey     string
	GroqModel      string
	CerebrasAPIKey string
	CerebrasModel  string

	// R2 Snapshot Configuration
	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2SnapshotKey     string

	// Observability
	SentryDSN           string
	SentryEnvironment   string
	SentrySampleRate    float64
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)
}

// Load reads configuration from the environment.
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	configFile := getEnv(EnvConfigFile, DefaultConfigFile)
	ranking, err := LoadRankingFile(configFile)
	if err != nil {
		return nil, err
	}
	ranking.MinEnrollment = getIntEnv(EnvMinEnrollment, ranking.MinEnrollment)
	ranking.RecencyYears = getIntEnv(EnvRecencyYears, ranking.RecencyYears)

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		CORSOrigins:     getListEnv(EnvCORSOrigins, []string{"http://localhost:5173"}),

		ConfigFile: configFile,
		Ranking:    ranking,

		WarehousePath: getEnv(EnvWarehousePath, DefaultWarehousePath),
		WarehouseDSN:  getEnv(EnvWarehouseDSN, ""),

		UseLLM:        getBoolEnv(EnvUseLLM, false),
		LLMProviders:  getListEnv(EnvLLMProviders, []string{"openai", "gemini", "groq"}),
		LLMTimeout:    getDurationEnv(EnvLLMTimeout, LLMParse),
		LLMRateBurst:  getFloatEnv(EnvLLMRateBurst, DefaultLLMRateBurst),
		LLMRateRefill: getFloatEnv(EnvLLMRateRefill, DefaultLLMRateRefill),

		OpenAIAPIKey:   getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL:  getEnv(EnvOpenAIBaseURL, ""),
		OpenAIModel:    getEnv(EnvOpenAIModel, ""),
		GeminiAPIKey:   getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:    getEnv(EnvGeminiModel, ""),
		GroqAPIKey:     getEnv(EnvGroqAPIKey, ""),
		GroqModel:      getEnv(EnvGroqModel, ""),
		CerebrasAPIKey: getEnv(EnvCerebrasAPIKey, ""),
		CerebrasModel:  getEnv(EnvCerebrasModel, ""),

		R2Endpoint:        getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2SnapshotKey:     getEnv(EnvR2SnapshotKey, DefaultSnapshotKey),

		SentryDSN:           getEnv(EnvSentryDSN, ""),
		SentryEnvironment:   getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:    getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.WarehousePath == "" && c.WarehouseDSN == "" {
		errs = append(errs, fmt.Errorf("one of %s or %s is required", EnvWarehousePath, EnvWarehouseDSN))
	}
	if err := c.Ranking.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ranking config: %w", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, c.LLMTimeout))
	}
	if c.LLMRateBurst < 0 || c.LLMRateRefill < 0 {
		errs = append(errs, errors.New("LLM rate limits cannot be negative"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	for _, p := range c.LLMProviders {
		switch p {
		case "openai", "gemini", "groq", "cerebras":
		default:
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}

	return errors.Join(errs...)
}

// HasLLMProvider returns true if at least one listed LLM provider has a key.
func (c *Config) HasLLMProvider() bool {
	for _, p := range c.LLMProviders {
		if c.APIKeyFor(p) != "" {
			return true
		}
	}
	return false
}

// APIKeyFor returns the configured key of a provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "groq":
		return c.GroqAPIKey
	case "cerebras":
		return c.CerebrasAPIKey
	default:
		return ""
	}
}

// ModelFor returns the configured model override of a provider.
func (c *Config) ModelFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIModel
	case "gemini":
		return c.GeminiModel
	case "groq":
		return c.GroqModel
	case "cerebras":
		return c.CerebrasModel
	default:
		return ""
	}
}

// HasR2 reports whether snapshot bootstrap is configured.
func (c *Config) HasR2() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts the strconv.ParseBool forms ("1", "true", ...).
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable. Empty entries are dropped.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
