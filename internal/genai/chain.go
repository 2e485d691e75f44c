package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ChainCompleter tries completers in order. Each is retried on transient
// errors; quota exhaustion or exhausted retries move to the next one, and
// permanent errors stop the chain. A Request.Model override applies to the
// first completer only; fallbacks use their own default model.
type ChainCompleter struct {
	completers []Completer
	retry      RetryConfig
	metrics    MetricsRecorder
}

// NewChainCompleter builds a chain. Nil completers are dropped.
func NewChainCompleter(cfg RetryConfig, metrics MetricsRecorder, completers ...Completer) *ChainCompleter {
	kept := make([]Completer, 0, len(completers))
	for _, c := range completers {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &ChainCompleter{completers: kept, retry: cfg, metrics: metrics}
}

// Len reports how many providers are configured.
func (c *ChainCompleter) Len() int {
	if c == nil {
		return 0
	}
	return len(c.completers)
}

// Provider reports the first provider of the chain.
func (c *ChainCompleter) Provider() Provider {
	if c.Len() == 0 {
		return ""
	}
	return c.completers[0].Provider()
}

// Complete implements Completer.
func (c *ChainCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if c.Len() == 0 {
		return "", errors.New("no completion provider configured")
	}

	var errs []error
	for i, comp := range c.completers {
		provider := comp.Provider()
		start := time.Now()
		callReq := req
		if i > 0 {
			callReq.Model = ""
		}

		var text string
		err := WithRetry(ctx, c.retry, func(attempt int, err error) {
			slog.DebugContext(ctx, "retrying completion",
				"provider", provider,
				"attempt", attempt,
				"error", err)
		}, func() error {
			var callErr error
			text, callErr = comp.Complete(ctx, callReq)
			return callErr
		})
		if err == nil {
			c.observe(provider, "success", start)
			if i > 0 {
				c.recordFallback(c.completers[0].Provider(), provider)
			}
			return text, nil
		}

		c.observe(provider, "error", start)
		errs = append(errs, err)
		action := ClassifyError(err)
		slog.WarnContext(ctx, "completion provider failed",
			"provider", provider,
			"action", action,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())

		if action == ActionFail || ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("all completion providers failed: %w", errors.Join(errs...))
}

// Close closes every completer.
func (c *ChainCompleter) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, comp := range c.completers {
		if err := comp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *ChainCompleter) observe(provider Provider, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveLLMRequest(provider.String(), status, time.Since(start))
	}
}

func (c *ChainCompleter) recordFallback(from, to Provider) {
	if c.metrics != nil {
		c.metrics.RecordLLMFallback(from.String(), to.String())
	}
}
