// Package genai implements the model-backed intent parser: the prompt and
// few-shot examples, the text-completion transports (OpenAI-compatible and
// Gemini), and the provider chain a calling layer may wrap around them.
//
// Architecture:
//   - OpenAI, Groq and Cerebras use github.com/openai/openai-go/v3
//   - Gemini uses google.golang.org/genai
//
// The parser itself makes exactly one completion call per request and
// surfaces any transport failure. Retry and cross-provider fallback live in
// ChainCompleter, which callers opt into.
package genai

import (
	"context"
	"time"
)

// Provider names a completion backend.
type Provider string

const (
	// ProviderOpenAI is api.openai.com or any endpoint set by OPENAI_BASE_URL.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is Google's Gemini API (native SDK).
	ProviderGemini Provider = "gemini"
	// ProviderGroq is Groq's OpenAI-compatible API.
	ProviderGroq Provider = "groq"
	// ProviderCerebras is Cerebras's OpenAI-compatible API.
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint is the default base URL of each OpenAI-compatible provider.
var ProviderEndpoint = map[Provider]string{
	ProviderOpenAI:   "https://api.openai.com/v1/",
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// DefaultModel is used when a provider is configured without a model.
var DefaultModel = map[Provider]string{
	ProviderOpenAI:   "gpt-4.1-mini",
	ProviderGemini:   "gemini-2.5-flash",
	ProviderGroq:     "llama-3.3-70b-versatile",
	ProviderCerebras: "llama-3.3-70b",
}

// IsOpenAICompatible returns true if the provider speaks the OpenAI API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Request is one text-completion call.
type Request struct {
	System string
	User   string
	// Model overrides the completer's default model when non-empty.
	Model       string
	Temperature float64
}

//go:generate mockgen -source=types.go -destination=mock_completer_test.go -package=genai Completer

// Completer is the opaque text-completion transport.
type Completer interface {
	// Complete returns the raw model text for req.
	Complete(ctx context.Context, req Request) (string, error)
	// Provider returns the provider type for metrics and logs.
	Provider() Provider
	// Close releases any resources held by the completer.
	Close() error
}

// RetryConfig controls retries inside ChainCompleter.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns conservative retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
}

// ProviderConfig configures one provider.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

// Config configures the completion stack.
type Config struct {
	// Providers in priority order. Entries without an API key are skipped.
	Providers []ProviderConfig
	Retry     RetryConfig
}

// MetricsRecorder receives completion observations.
type MetricsRecorder interface {
	ObserveLLMRequest(provider, status string, duration time.Duration)
	RecordLLMFallback(from, to string)
}
