package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChainCompleter_FirstProviderSucceeds(t *testing.T) {
	t.Parallel()
	primary := &fakeCompleter{provider: ProviderOpenAI, replies: []string{`{"polarity":"hard"}`}}
	secondary := &fakeCompleter{provider: ProviderGemini, replies: []string{"unused"}}
	metrics := newFakeMetrics()

	chain := NewChainCompleter(fastRetry(), metrics, primary, secondary)
	text, err := chain.Complete(context.Background(), Request{User: "hi"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"polarity":"hard"}`, text)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 0, secondary.callCount())
	assert.Equal(t, 1, metrics.requests["openai/success"])
	assert.Empty(t, metrics.fallbacks)
}

func TestChainCompleter_RetriesTransientError(t *testing.T) {
	t.Parallel()
	primary := &fakeCompleter{
		provider: ProviderOpenAI,
		errs:     []error{&LLMError{Err: errors.New("boom"), StatusCode: 503, Provider: ProviderOpenAI}},
		replies:  []string{"", "ok"},
	}

	chain := NewChainCompleter(fastRetry(), nil, primary)
	text, err := chain.Complete(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, primary.callCount())
}

func TestChainCompleter_FallsBackOnQuota(t *testing.T) {
	t.Parallel()
	quota := errors.New("insufficient_quota: you exceeded your current quota")
	primary := &fakeCompleter{provider: ProviderOpenAI, errs: []error{quota, quota}}
	secondary := &fakeCompleter{provider: ProviderGroq, replies: []string{"from groq"}}
	metrics := newFakeMetrics()

	chain := NewChainCompleter(fastRetry(), metrics, primary, secondary)
	text, err := chain.Complete(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "from groq", text)
	assert.Equal(t, 1, primary.callCount(), "quota errors are not retried")
	assert.Equal(t, []recordedFallback{{"openai", "groq"}}, metrics.fallbacks)
	assert.Equal(t, 1, metrics.requests["openai/error"])
	assert.Equal(t, 1, metrics.requests["groq/success"])
}

func TestChainCompleter_StopsOnPermanentError(t *testing.T) {
	t.Parallel()
	denied := &LLMError{Err: errors.New("bad key"), StatusCode: 401, Provider: ProviderOpenAI}
	primary := &fakeCompleter{provider: ProviderOpenAI, errs: []error{denied}}
	secondary := &fakeCompleter{provider: ProviderGemini, replies: []string{"unused"}}

	chain := NewChainCompleter(fastRetry(), nil, primary, secondary)
	_, err := chain.Complete(context.Background(), Request{})

	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 0, secondary.callCount())
}

func TestChainCompleter_Empty(t *testing.T) {
	t.Parallel()
	chain := NewChainCompleter(fastRetry(), nil, nil, nil)
	assert.Equal(t, 0, chain.Len())
	assert.Equal(t, Provider(""), chain.Provider())

	_, err := chain.Complete(context.Background(), Request{})
	require.Error(t, err)

	var nilChain *ChainCompleter
	assert.Equal(t, 0, nilChain.Len())
	assert.NoError(t, nilChain.Close())
}

func TestChainCompleter_CloseClosesAll(t *testing.T) {
	t.Parallel()
	a := &fakeCompleter{provider: ProviderOpenAI}
	b := &fakeCompleter{provider: ProviderGemini}

	require.NoError(t, NewChainCompleter(fastRetry(), nil, a, b).Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestChainCompleter_WithGoMock(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	primary := NewMockCompleter(ctrl)
	secondary := NewMockCompleter(ctrl)
	metrics := NewMockMetricsRecorder(ctrl)

	quota := &LLMError{Err: errors.New("quota exceeded"), StatusCode: 429, Provider: ProviderGemini}
	primary.EXPECT().Provider().Return(ProviderGemini).AnyTimes()
	secondary.EXPECT().Provider().Return(ProviderOpenAI).AnyTimes()
	primary.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", quota)
	secondary.EXPECT().Complete(gomock.Any(), Request{User: "hard cs"}).Return(`{"polarity":"hard"}`, nil)

	gomock.InOrder(
		metrics.EXPECT().ObserveLLMRequest("gemini", "error", gomock.Any()),
		metrics.EXPECT().ObserveLLMRequest("openai", "success", gomock.Any()),
		metrics.EXPECT().RecordLLMFallback("gemini", "openai"),
	)

	text, err := NewChainCompleter(fastRetry(), metrics, primary, secondary).
		Complete(context.Background(), Request{User: "hard cs"})
	require.NoError(t, err)
	assert.Equal(t, `{"polarity":"hard"}`, text)
}

func TestChainCompleter_ModelOverrideIsPrimaryOnly(t *testing.T) {
	t.Parallel()
	quota := errors.New("insufficient_quota")
	primary := &fakeCompleter{provider: ProviderOpenAI, errs: []error{quota}}
	secondary := &fakeCompleter{provider: ProviderGemini, replies: []string{"ok"}}

	chain := NewChainCompleter(fastRetry(), nil, primary, secondary)
	_, err := chain.Complete(context.Background(), Request{User: "easy cs", Model: "gpt-4o"})
	require.NoError(t, err)

	primary.mu.Lock()
	assert.Equal(t, "gpt-4o", primary.requests[0].Model)
	primary.mu.Unlock()

	secondary.mu.Lock()
	assert.Equal(t, []Request{{User: "easy cs"}}, secondary.requests)
	secondary.mu.Unlock()
}
