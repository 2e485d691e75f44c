package genai

import (
	"context"
	"fmt"
	"log/slog"
)

// NewCompleter builds the completion chain described by cfg. It returns
// nil when no provider has an API key, which disables model parsing.
func NewCompleter(ctx context.Context, cfg Config, metrics MetricsRecorder) (*ChainCompleter, error) {
	var completers []Completer
	for _, pc := range cfg.Providers {
		c, err := newProviderCompleter(ctx, pc)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		completers = append(completers, c)
	}

	if len(completers) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured, model parsing disabled")
		return nil, nil //nolint:nilnil // model parsing disabled
	}

	chain := NewChainCompleter(cfg.Retry, metrics, completers...)
	slog.InfoContext(ctx, "completion chain configured",
		"primary", chain.Provider(),
		"chain_size", chain.Len())
	return chain, nil
}

// newProviderCompleter returns (nil, nil) for a provider without a key.
func newProviderCompleter(ctx context.Context, pc ProviderConfig) (Completer, error) {
	switch {
	case pc.Provider == ProviderGemini:
		c, err := newGeminiCompleter(ctx, pc.APIKey, pc.Model)
		if err != nil || c == nil {
			return nil, err
		}
		return c, nil
	case pc.Provider.IsOpenAICompatible():
		c, err := newOpenAICompleter(pc.Provider, pc.APIKey, pc.Model, pc.BaseURL)
		if err != nil || c == nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", pc.Provider)
	}
}
