// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "COURSEAI_PORT"
	EnvLogLevel        = "COURSEAI_LOG_LEVEL"
	EnvShutdownTimeout = "COURSEAI_SHUTDOWN_TIMEOUT"
	EnvCORSOrigins     = "COURSEAI_CORS_ORIGINS"

	// Ranking file and overrides
	EnvConfigFile    = "COURSEAI_CONFIG_FILE"
	EnvMinEnrollment = "COURSEAI_MIN_ENROLLMENT"
	EnvRecencyYears  = "COURSEAI_RECENCY_YEARS"

	// Warehouse
	EnvWarehousePath = "COURSEAI_WAREHOUSE_PATH"
	EnvWarehouseDSN  = "COURSEAI_WAREHOUSE_DSN"

	// LLM Feature
	EnvUseLLM         = "COURSEAI_USE_LLM"
	EnvLLMProviders   = "COURSEAI_LLM_PROVIDERS"
	EnvLLMTimeout     = "COURSEAI_LLM_TIMEOUT"
	EnvLLMRateBurst   = "COURSEAI_LLM_RATE_BURST"
	EnvLLMRateRefill  = "COURSEAI_LLM_RATE_REFILL"
	EnvOpenAIAPIKey   = "COURSEAI_OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "COURSEAI_OPENAI_BASE_URL"
	EnvOpenAIModel    = "COURSEAI_OPENAI_MODEL"
	EnvGeminiAPIKey   = "COURSEAI_GEMINI_API_KEY"
	EnvGeminiModel    = "COURSEAI_GEMINI_MODEL"
	EnvGroqAPIKey     = "COURSEAI_GROQ_API_KEY"
	EnvGroqModel      = "COURSEAI_GROQ_MODEL"
	EnvCerebrasAPIKey = "COURSEAI_CEREBRAS_API_KEY"
	EnvCerebrasModel  = "COURSEAI_CEREBRAS_MODEL"

	// R2 Snapshot Feature
	EnvR2Endpoint        = "COURSEAI_R2_ENDPOINT"
	EnvR2AccessKeyID     = "COURSEAI_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "COURSEAI_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "COURSEAI_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "COURSEAI_R2_SNAPSHOT_KEY"

	// Sentry Feature
	EnvSentryDSN         = "COURSEAI_SENTRY_DSN"
	EnvSentryEnvironment = "COURSEAI_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "COURSEAI_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "COURSEAI_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "COURSEAI_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "COURSEAI_METRICS_USERNAME"
	EnvMetricsPassword = "COURSEAI_METRICS_PASSWORD"
)
