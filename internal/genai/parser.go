package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/stringutil"
)

// ModelParser is the model-backed intent parser. It sends one zero-
// temperature completion per call and normalizes whatever comes back.
// Transport failures are returned wrapped in ErrParseFailure; callers
// choose whether to fall back to the rule parser.
type ModelParser struct {
	completer Completer
	model     string
}

// NewModelParser returns a parser over completer. model may be empty to use
// the completer's default.
func NewModelParser(completer Completer, model string) *ModelParser {
	return &ModelParser{completer: completer, model: model}
}

// Name implements intent.Parser.
func (p *ModelParser) Name() string { return "llm" }

// Parse implements intent.Parser with the parser's configured model.
func (p *ModelParser) Parse(ctx context.Context, text string) (intent.Intent, error) {
	return p.ParseWithModel(ctx, text, p.model)
}

// ParseWithModel parses text with an explicit model id. The returned intent
// is always canonical, even when the reply is partial or not JSON at all.
func (p *ModelParser) ParseWithModel(ctx context.Context, text, model string) (intent.Intent, error) {
	if p == nil || p.completer == nil {
		return intent.Intent{}, fmt.Errorf("%w: model parser not configured", apperrors.ErrParseFailure)
	}

	start := time.Now()
	raw, err := p.completer.Complete(ctx, Request{
		System:      systemInstruction,
		User:        BuildUserPrompt(text),
		Model:       model,
		Temperature: 0,
	})
	if err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %w", apperrors.ErrParseFailure, err)
	}

	payload := intent.ExtractObject(raw)
	in := intent.Normalize(payload, text)
	slog.DebugContext(ctx, "model intent parsed",
		"provider", p.completer.Provider(),
		"model", model,
		"payload_keys", len(payload),
		"reply", stringutil.TruncateRunes(raw, maxLoggedReply),
		"duration_ms", time.Since(start).Milliseconds())
	return in, nil
}

// Close releases the underlying completer.
func (p *ModelParser) Close() error {
	if p == nil || p.completer == nil {
		return nil
	}
	return p.completer.Close()
}

// maxLoggedReply caps how much of a model reply reaches the debug log.
const maxLoggedReply = 200

var errEmptyResponse = errors.New("empty response from model")
