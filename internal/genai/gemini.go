package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiCompleter talks to the Gemini API through the native SDK.
type geminiCompleter struct {
	client *genai.Client
	model  string
}

// newGeminiCompleter returns nil when apiKey is empty (provider disabled).
func newGeminiCompleter(ctx context.Context, apiKey, model string) (*geminiCompleter, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // provider disabled without a key
	}
	if model == "" {
		model = DefaultModel[ProviderGemini]
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiCompleter{client: client, model: model}, nil
}

func (c *geminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.User), config)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "generate content failed",
			"provider", ProviderGemini,
			"model", model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(err, ProviderGemini)
	}

	text, err := responseText(result)
	if err != nil {
		return "", WrapError(err, ProviderGemini)
	}
	if result.UsageMetadata != nil {
		slog.DebugContext(ctx, "generate content finished",
			"provider", ProviderGemini,
			"model", model,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errEmptyResponse
	}
	cand := result.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", errEmptyResponse
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", errEmptyResponse
	}
	return b.String(), nil
}

func (c *geminiCompleter) Provider() Provider { return ProviderGemini }

// Close is a no-op; the genai client holds no closable resources.
func (c *geminiCompleter) Close() error { return nil }
