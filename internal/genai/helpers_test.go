package genai

import (
	"context"
	"sync"
	"time"
)

// fakeCompleter replays a scripted sequence of replies.
type fakeCompleter struct {
	provider Provider
	replies  []string
	errs     []error

	mu       sync.Mutex
	calls    int
	requests []Request
	closed   bool
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.requests = append(f.requests, req)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	if len(f.replies) > 0 {
		return f.replies[len(f.replies)-1], nil
	}
	return "", nil
}

func (f *fakeCompleter) Provider() Provider { return f.provider }

func (f *fakeCompleter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordedFallback struct{ from, to string }

type fakeMetrics struct {
	mu        sync.Mutex
	requests  map[string]int
	fallbacks []recordedFallback
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{requests: make(map[string]int)}
}

func (m *fakeMetrics) ObserveLLMRequest(provider, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[provider+"/"+status]++
}

func (m *fakeMetrics) RecordLLMFallback(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, recordedFallback{from, to})
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}
