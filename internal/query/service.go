// Package query answers course questions end to end: it normalizes the
// text, picks a parser, runs the rank or details operation and assembles
// the response both front ends render.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/garyellow/courseai-go/internal/ctxutil"
	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/stringutil"
	"github.com/garyellow/courseai-go/internal/warehouse"
)

// Mode is the operation a response came from.
type Mode string

const (
	ModeRank    Mode = "rank"
	ModeDetails Mode = "details"
)

// Fallback reasons reported when the rule parser answers a request that
// asked for the model.
const (
	ReasonDisabled         = "disabled"
	ReasonRateLimited      = "rate_limited"
	ReasonModelUnavailable = "model_unavailable"
)

// Parser names used in responses and metrics.
const (
	ParserClient = "client"
	ParserDirect = "direct"
)

// MsgNoDetails is shown when a details lookup matches nothing.
const MsgNoDetails = "No matching sections for details."

// Warehouse is the query surface the service needs.
type Warehouse interface {
	Rank(ctx context.Context, in intent.Intent, topN int) ([]warehouse.RankedResult, error)
	Details(ctx context.Context, subject, classNum, instructorLike string) ([]warehouse.DetailRow, error)
}

// Limiter guards model-backed parsing per client.
type Limiter interface {
	Allow(key string) bool
}

// MetricsRecorder receives one observation per answered request.
type MetricsRecorder interface {
	RecordQuery(mode, parser, outcome string, duration time.Duration)
	RecordParserFallback(reason string)
}

// Config wires a Service. Rules and Warehouse are required.
type Config struct {
	Rules     intent.Parser
	Model     intent.Parser // nil disables model-backed parsing
	Warehouse Warehouse
	Limiter   Limiter
	Metrics   MetricsRecorder

	ParseTimeout     time.Duration
	MaxMessageLength int
}

// Request is one natural-language question.
type Request struct {
	Message  string
	UseLLM   bool
	Strict   bool // with UseLLM, report a model failure instead of falling back
	TopN     int
	ClientID string
}

// Response is what both front ends render. Exactly one of Ranked and
// Details is populated, according to Mode.
type Response struct {
	UsedLLM        bool
	Parser         string
	FallbackReason string
	Intent         intent.Intent
	Mode           Mode
	Ranked         []warehouse.RankedResult
	Details        []warehouse.DetailRow
	Explanation    string
	Message        string
}

// Empty reports whether the operation matched nothing.
func (r *Response) Empty() bool {
	return len(r.Ranked) == 0 && len(r.Details) == 0
}

// MarshalJSON emits the wire shape: the rows of either mode go under
// "results".
func (r Response) MarshalJSON() ([]byte, error) {
	var results any = r.Ranked
	if r.Mode == ModeDetails {
		results = r.Details
	}
	if r.Empty() {
		results = []struct{}{}
	}
	return json.Marshal(struct {
		UsedLLM        bool          `json:"used_llm"`
		Parser         string        `json:"parser"`
		FallbackReason string        `json:"fallback_reason,omitempty"`
		Intent         intent.Intent `json:"intent"`
		Mode           Mode          `json:"mode"`
		Results        any           `json:"results"`
		Explanation    string        `json:"explanation,omitempty"`
		Message        string        `json:"message,omitempty"`
	}{
		UsedLLM:        r.UsedLLM,
		Parser:         r.Parser,
		FallbackReason: r.FallbackReason,
		Intent:         r.Intent,
		Mode:           r.Mode,
		Results:        results,
		Explanation:    r.Explanation,
		Message:        r.Message,
	})
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	rules     intent.Parser
	model     intent.Parser
	fallback  *intent.FallbackParser
	warehouse Warehouse
	limiter   Limiter
	metrics   MetricsRecorder

	parseTimeout time.Duration
	maxLen       int
}

// NewService builds a Service from cfg.
func NewService(cfg Config) (*Service, error) {
	if cfg.Rules == nil {
		return nil, errors.New("query: rule parser is required")
	}
	if cfg.Warehouse == nil {
		return nil, errors.New("query: warehouse is required")
	}
	s := &Service{
		rules:        cfg.Rules,
		model:        cfg.Model,
		warehouse:    cfg.Warehouse,
		limiter:      cfg.Limiter,
		metrics:      cfg.Metrics,
		parseTimeout: cfg.ParseTimeout,
		maxLen:       cfg.MaxMessageLength,
	}
	if s.model != nil {
		s.fallback = intent.NewFallbackParser(s.model, s.rules)
	}
	return s, nil
}

// ModelEnabled reports whether a model-backed parser is configured.
func (s *Service) ModelEnabled() bool {
	return s.model != nil
}

// Resolve normalizes req.Message and turns it into an intent without
// touching the warehouse.
func (s *Service) Resolve(ctx context.Context, req Request) (intent.Resolution, error) {
	text, err := s.normalize(req.Message)
	if err != nil {
		return intent.Resolution{}, err
	}
	return s.resolve(ctx, req, text)
}

// Ask answers a natural-language question.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	text, err := s.normalize(req.Message)
	if err != nil {
		s.record(ModeRank, "", "invalid", start)
		return nil, err
	}

	res, err := s.resolve(ctx, req, text)
	if err != nil {
		s.record(ModeRank, parserName(s.model), "parse_failure", start)
		return nil, apperrors.NewWrapper("query", "parse").Wrap(err, apperrors.MsgParseFailure)
	}

	resp := &Response{
		UsedLLM:        s.model != nil && res.Parser == s.model.Name(),
		Parser:         res.Parser,
		FallbackReason: res.FallbackReason,
		Intent:         res.Intent,
	}
	if err := s.execute(ctx, resp, req.TopN); err != nil {
		s.record(resp.Mode, resp.Parser, "error", start)
		return nil, err
	}
	s.record(resp.Mode, resp.Parser, outcome(resp), start)
	return resp, nil
}

// RankIntent runs a client-supplied canonical intent. Details are honored
// the same way as for parsed questions.
func (s *Service) RankIntent(ctx context.Context, in intent.Intent, topN int) (*Response, error) {
	start := time.Now()
	in.Canonicalize()
	resp := &Response{Parser: ParserClient, Intent: in}
	if err := s.execute(ctx, resp, topN); err != nil {
		s.record(resp.Mode, ParserClient, "error", start)
		return nil, err
	}
	s.record(resp.Mode, ParserClient, outcome(resp), start)
	return resp, nil
}

// Details runs a direct per-semester lookup. Empty arguments do not filter.
func (s *Service) Details(ctx context.Context, subject, classNum, instructorLike string) (*Response, error) {
	in := intent.Default()
	in.Subject = intent.Ptr(subject)
	in.ClassNum = intent.Ptr(classNum)
	in.InstructorLike = intent.Ptr(instructorLike)
	in.Details = true
	in.Canonicalize()

	start := time.Now()
	resp := &Response{Parser: ParserDirect, Intent: in}
	if err := s.execute(ctx, resp, 0); err != nil {
		s.record(ModeDetails, ParserDirect, "error", start)
		return nil, err
	}
	s.record(ModeDetails, ParserDirect, outcome(resp), start)
	return resp, nil
}

func (s *Service) normalize(message string) (string, error) {
	text := stringutil.NormalizeQuery(message)
	if text == "" {
		return "", apperrors.NewValidationError("message", "must not be empty")
	}
	if s.maxLen > 0 && stringutil.RuneLen(text) > s.maxLen {
		return "", apperrors.NewValidationError("message", "is too long")
	}
	return text, nil
}

func (s *Service) resolve(ctx context.Context, req Request, text string) (intent.Resolution, error) {
	reason := ""
	switch {
	case !req.UseLLM:
	case s.model == nil:
		reason = ReasonDisabled
	case s.limiter != nil && !s.limiter.Allow(clientKey(ctx, req)):
		reason = ReasonRateLimited
	default:
		return s.resolveWithModel(ctx, req, text)
	}

	if reason != "" {
		s.fallbackTaken(ctx, reason)
	}
	in, err := s.rules.Parse(ctx, text)
	if err != nil {
		return intent.Resolution{}, err
	}
	return intent.Resolution{Intent: in, Parser: s.rules.Name(), FallbackReason: reason}, nil
}

func (s *Service) resolveWithModel(ctx context.Context, req Request, text string) (intent.Resolution, error) {
	parseCtx := ctx
	if s.parseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, s.parseTimeout)
		defer cancel()
	}

	if req.Strict {
		in, err := s.model.Parse(parseCtx, text)
		if err != nil {
			return intent.Resolution{}, err
		}
		return intent.Resolution{Intent: in, Parser: s.model.Name()}, nil
	}

	res, err := s.fallback.Resolve(parseCtx, text)
	if err != nil {
		return intent.Resolution{}, err
	}
	if res.FallbackReason != "" {
		s.fallbackTaken(ctx, res.FallbackReason)
	}
	return res, nil
}

func (s *Service) execute(ctx context.Context, resp *Response, topN int) error {
	in := resp.Intent
	if in.Details {
		resp.Mode = ModeDetails
		rows, err := s.warehouse.Details(ctx, in.SubjectValue(), in.ClassNumValue(), in.InstructorValue())
		if err != nil {
			return apperrors.NewWrapper("query", "details").Wrap(err, "The grade warehouse could not be queried.")
		}
		resp.Details = rows
		if len(rows) == 0 {
			resp.Message = MsgNoDetails
		}
		return nil
	}

	resp.Mode = ModeRank
	rows, err := s.warehouse.Rank(ctx, in, topN)
	if err != nil {
		return apperrors.NewWrapper("query", "rank").Wrap(err, "The grade warehouse could not be queried.")
	}
	resp.Ranked = rows
	if len(rows) == 0 {
		resp.Message = apperrors.MsgNoMatches
	}
	if in.Explain {
		resp.Explanation = Explain(in, len(rows) > 0)
	}
	return nil
}

func (s *Service) fallbackTaken(ctx context.Context, reason string) {
	slog.DebugContext(ctx, "answering with rule parser", "reason", reason)
	if s.metrics != nil {
		s.metrics.RecordParserFallback(reason)
	}
}

func (s *Service) record(mode Mode, parser, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordQuery(string(mode), parser, outcome, time.Since(start))
	}
}

func outcome(resp *Response) string {
	if resp.Empty() {
		return "empty"
	}
	return "ok"
}

func parserName(p intent.Parser) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

// clientKey prefers the explicit client ID over the one on the context.
func clientKey(ctx context.Context, req Request) string {
	if req.ClientID != "" {
		return req.ClientID
	}
	return ctxutil.GetClientID(ctx)
}
