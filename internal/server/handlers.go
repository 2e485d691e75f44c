package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/courseai-go/internal/config"
	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/sentry"
)

type queryRequest struct {
	Message string `json:"message"`
	UseLLM  *bool  `json:"use_llm"`
	Strict  bool   `json:"strict"`
	TopN    int    `json:"top_n"`
}

type rankRequest struct {
	Intent json.RawMessage `json:"intent"`
	TopN   int             `json:"top_n"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.WarehouseQuery)
	defer cancel()

	features := gin.H{"llm": s.opts.Service.ModelEnabled()}
	n, err := s.opts.Warehouse.Count(ctx)
	if err != nil {
		reason := "warehouse unavailable"
		if apperrors.IsWarehouseMissing(err) {
			reason = "warehouse missing"
		}
		s.log.WithError(err).WarnContext(ctx, "Readiness check failed", "reason", reason)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"reason":   reason,
			"features": features,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ready",
		"warehouse_rows": n,
		"features":       features,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "query", apperrors.NewValidationError("body", "expected a JSON object with a message"))
		return
	}
	useLLM := s.opts.DefaultUseLLM
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	resp, err := s.opts.Service.Ask(ctx, query.Request{
		Message: req.Message,
		UseLLM:  useLLM,
		Strict:  req.Strict,
		TopN:    req.TopN,
	})
	if err != nil {
		s.fail(c, "query", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "rank", apperrors.NewValidationError("body", "expected a JSON object with an intent"))
		return
	}
	if len(req.Intent) == 0 || string(req.Intent) == "null" {
		s.fail(c, "rank", apperrors.NewValidationError("intent", "is required"))
		return
	}
	in, err := intent.Decode(req.Intent)
	if err != nil {
		s.fail(c, "rank", err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	resp, err := s.opts.Service.RankIntent(ctx, in, req.TopN)
	if err != nil {
		s.fail(c, "rank", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDetails(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	resp, err := s.opts.Service.Details(ctx, c.Query("subject"), c.Query("class_num"), c.Query("instructor"))
	if err != nil {
		s.fail(c, "details", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
}

// fail maps err onto a status code and a user-facing message. Only
// unexpected errors reach error tracking.
func (s *Server) fail(c *gin.Context, route string, err error) {
	var status int
	var errorType string
	switch {
	case apperrors.IsInvalidInput(err):
		status, errorType = http.StatusBadRequest, "invalid_input"
	case apperrors.IsParseFailure(err):
		status, errorType = http.StatusUnprocessableEntity, "parse_failure"
	default:
		status, errorType = http.StatusInternalServerError, "internal"
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordHTTPError(errorType, route)
	}
	_ = c.Error(err)

	message := apperrors.GetUserMessage(err)
	if status == http.StatusInternalServerError {
		sentry.CaptureError(c.Request.Context(), err, map[string]string{"route": route})
		var wrapped *apperrors.WrappedError
		if !errors.As(err, &wrapped) {
			message = "internal error"
		}
	}
	c.JSON(status, gin.H{"error": message, "error_type": errorType})
}
