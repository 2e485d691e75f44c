package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Parser turns free text into a canonical intent. Implementations are
// interchangeable: callers never branch on which one produced an intent.
type Parser interface {
	Parse(ctx context.Context, text string) (Intent, error)
	Name() string
}

// Resolution reports the parsed intent together with the parser that
// produced it and, when the primary failed, why.
type Resolution struct {
	Intent         Intent
	Parser         string
	FallbackReason string
	PrimaryErr     error
}

// FallbackParser tries a primary parser and, on failure, a secondary one.
// The usual composition is a model-backed primary with the rule parser as
// secondary.
type FallbackParser struct {
	primary   Parser
	secondary Parser

	// OnFallback is invoked after the primary fails, before the secondary runs.
	OnFallback func(ctx context.Context, primary string, err error)
}

// NewFallbackParser composes primary and secondary. A nil primary makes the
// secondary the only parser.
func NewFallbackParser(primary, secondary Parser) *FallbackParser {
	return &FallbackParser{primary: primary, secondary: secondary}
}

// Name implements Parser.
func (f *FallbackParser) Name() string {
	if f.primary == nil {
		return f.secondary.Name()
	}
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Parse implements Parser and discards the resolution metadata.
func (f *FallbackParser) Parse(ctx context.Context, text string) (Intent, error) {
	res, err := f.Resolve(ctx, text)
	return res.Intent, err
}

// Resolve runs the composition and reports which parser answered.
func (f *FallbackParser) Resolve(ctx context.Context, text string) (Resolution, error) {
	if f.secondary == nil {
		return Resolution{}, errors.New("intent: fallback parser has no secondary")
	}

	var primaryErr error
	if f.primary != nil {
		start := time.Now()
		in, err := f.primary.Parse(ctx, text)
		if err == nil {
			return Resolution{Intent: in, Parser: f.primary.Name()}, nil
		}
		primaryErr = err
		slog.WarnContext(ctx, "primary intent parser failed, using fallback",
			"primary", f.primary.Name(),
			"fallback", f.secondary.Name(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		if f.OnFallback != nil {
			f.OnFallback(ctx, f.primary.Name(), err)
		}
	}

	in, err := f.secondary.Parse(ctx, text)
	if err != nil {
		return Resolution{}, fmt.Errorf("fallback parser %s: %w", f.secondary.Name(), errors.Join(err, primaryErr))
	}
	res := Resolution{Intent: in, Parser: f.secondary.Name(), PrimaryErr: primaryErr}
	if primaryErr != nil {
		res.FallbackReason = "model_unavailable"
	}
	return res, nil
}
