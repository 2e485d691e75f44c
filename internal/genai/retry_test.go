package genai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		attempt     int
		initial     time.Duration
		max         time.Duration
		maxExpected time.Duration
	}{
		{"no delay before first call", 0, time.Second, 10 * time.Second, 0},
		{"first retry", 1, time.Second, 10 * time.Second, time.Second},
		{"second retry doubles", 2, time.Second, 10 * time.Second, 2 * time.Second},
		{"capped at max", 10, time.Second, 5 * time.Second, 5 * time.Second},
		{"negative attempt", -1, time.Second, 10 * time.Second, 0},
		{"zero initial delay", 1, 0, 10 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for range 20 {
				got := CalculateBackoff(tt.attempt, tt.initial, tt.max)
				if got < 0 || got > tt.maxExpected {
					t.Errorf("CalculateBackoff(%d, %v, %v) = %v, want in [0, %v]",
						tt.attempt, tt.initial, tt.max, got, tt.maxExpected)
				}
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient errors", func(t *testing.T) {
		t.Parallel()
		calls, retries := 0, 0
		err := WithRetry(context.Background(), cfg, func(int, error) { retries++ }, func() error {
			calls++
			if calls < 3 {
				return &LLMError{Err: errors.New("busy"), StatusCode: 503, Provider: ProviderGroq}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 3 || retries != 2 {
			t.Errorf("calls = %d, retries = %d; want 3, 2", calls, retries)
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		t.Parallel()
		calls := 0
		permanent := &LLMError{Err: errors.New("bad key"), StatusCode: 401, Provider: ProviderOpenAI}
		err := WithRetry(context.Background(), cfg, nil, func() error {
			calls++
			return permanent
		})
		if !errors.Is(err, permanent) {
			t.Errorf("WithRetry() error = %v, want %v", err, permanent)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := WithRetry(context.Background(), cfg, nil, func() error {
			calls++
			return errors.New("connection reset by peer")
		})
		if err == nil || calls != 3 {
			t.Errorf("err = %v, calls = %d; want error after 3 calls", err, calls)
		}
	})

	t.Run("honors canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, cfg, nil, func() error {
			t.Error("fn must not run with a canceled context")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
