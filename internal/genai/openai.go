package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiCompleter talks to OpenAI or any OpenAI-compatible provider.
type openaiCompleter struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAICompleter returns nil when apiKey is empty (provider disabled).
// baseURL overrides the provider's default endpoint.
func newOpenAICompleter(provider Provider, apiKey, model, baseURL string) (*openaiCompleter, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // provider disabled without a key
	}
	if baseURL == "" {
		var ok bool
		baseURL, ok = ProviderEndpoint[provider]
		if !ok {
			return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
		}
	}
	if model == "" {
		model = DefaultModel[provider]
	}
	if model == "" {
		return nil, fmt.Errorf("model is required for provider %s", provider)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// Retries belong to ChainCompleter.
		option.WithMaxRetries(0),
	)
	return &openaiCompleter{client: client, model: model, provider: provider}, nil
}

func (c *openaiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "chat completion failed",
			"provider", c.provider,
			"model", model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(err, c.provider)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", WrapError(errEmptyResponse, c.provider)
	}

	slog.DebugContext(ctx, "chat completion finished",
		"provider", c.provider,
		"model", model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", duration.Milliseconds())
	return resp.Choices[0].Message.Content, nil
}

func (c *openaiCompleter) Provider() Provider {
	if c == nil {
		return ""
	}
	return c.provider
}

// Close is a no-op; the openai-go client holds no resources.
func (c *openaiCompleter) Close() error { return nil }
