package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/courseai-go/internal/config"
	"github.com/garyellow/courseai-go/internal/genai"
	"github.com/garyellow/courseai-go/internal/intent"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:            "0",
		LogLevel:        "error",
		ShutdownTimeout: config.GracefulShutdown,
		Ranking:         config.DefaultRankingConfig(),
		WarehousePath:   filepath.Join(t.TempDir(), "grades.db"),
		LLMProviders:    []string{"openai", "gemini"},
		LLMTimeout:      config.LLMParse,
		LLMRateBurst:    config.DefaultLLMRateBurst,
		LLMRateRefill:   config.DefaultLLMRateRefill,
		MetricsUsername: "prometheus",
	}
}

func TestInitialize_RulesOnly(t *testing.T) {
	cfg := testConfig(t)

	a, err := Initialize(context.Background(), cfg, Options{LogWriter: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.NotNil(t, a.Service())
	assert.False(t, a.Service().ModelEnabled())
	assert.Nil(t, a.Snapshots())

	// The warehouse file does not exist yet, so the service reports not ready.
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	a.NewServer().Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "warehouse missing", body["reason"])
}

func TestInitialize_MissingWarehouseAnswersEmpty(t *testing.T) {
	cfg := testConfig(t)

	a, err := Initialize(context.Background(), cfg, Options{LogWriter: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	resp, err := a.Service().RankIntent(context.Background(), intent.Default(), 0)
	require.NoError(t, err)
	assert.True(t, resp.Empty())
}

func TestBuildProviders(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		LLMProviders:  []string{"groq", "bogus", "openai"},
		GroqAPIKey:    "gk",
		GroqModel:     "llama",
		OpenAIAPIKey:  "ok",
		OpenAIBaseURL: "http://localhost:11434/v1",
	}
	want := []genai.ProviderConfig{
		{Provider: genai.ProviderGroq, APIKey: "gk", Model: "llama"},
		{Provider: genai.ProviderOpenAI, APIKey: "ok", Model: cfg.ModelFor("openai"), BaseURL: "http://localhost:11434/v1"},
	}
	if diff := cmp.Diff(want, buildProviders(cfg)); diff != "" {
		t.Errorf("buildProviders() mismatch (-want +got):\n%s", diff)
	}
}
