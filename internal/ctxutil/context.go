// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	clientIDKey  contextKey = "ctxutil.clientID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithClientID adds a client identity to the context. The HTTP front end
// uses the X-Client-ID header or the remote IP; the CLI uses "cli".
// Client identity keys per-client model-parse limits.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientID retrieves the client ID from the context.
// Returns the client ID if found, empty string otherwise.
func GetClientID(ctx context.Context) string {
	if v := ctx.Value(clientIDKey); v != nil {
		if clientID, ok := v.(string); ok && clientID != "" {
			return clientID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}
