// Package sentry wraps the Sentry Go SDK: initialization from config, a
// scrubber that keeps user questions out of error reports, and capture
// helpers that tag events with request-scoped values.
package sentry

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/courseai-go/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is the project DSN. Empty disables error tracking.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK. It reports whether tracking is enabled.
func Initialize(cfg Config) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return false, errors.New("sentry sample rate must be within [0, 1]")
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// scrubEvent drops request bodies and cookies. Bodies carry the user's
// free-text question.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}
	event.Request.Data = ""
	event.Request.Cookies = ""
	delete(event.Request.Headers, "Authorization")
	delete(event.Request.Headers, "Cookie")
	return event
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureError reports err with the given tags plus the request ID from ctx.
// It uses the request's hub when the gin middleware installed one.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
			scope.SetTag("request_id", id)
		}
		hub.CaptureException(err)
	})
}
