package ctxutil

import (
	"context"
	"testing"
)

func TestClientID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"set", WithClientID(context.Background(), "203.0.113.7"), "203.0.113.7"},
		{"empty", WithClientID(context.Background(), ""), ""},
		{"missing", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), clientIDKey, 42), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetClientID(tt.ctx); got != tt.want {
				t.Errorf("GetClientID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")
	if got, ok := GetRequestID(ctx); !ok || got != "req-123" {
		t.Errorf("GetRequestID() = (%q, %v), want (req-123, true)", got, ok)
	}

	if got, ok := GetRequestID(context.Background()); ok || got != "" {
		t.Errorf("GetRequestID() on empty context = (%q, %v)", got, ok)
	}
}

func TestValuesAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(WithClientID(context.Background(), "client"), "req")
	if GetClientID(ctx) != "client" {
		t.Error("client ID lost after adding request ID")
	}
	if id, _ := GetRequestID(ctx); id != "req" {
		t.Error("request ID not set")
	}
}
