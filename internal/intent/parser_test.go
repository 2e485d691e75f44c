package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	name   string
	intent Intent
	err    error
	calls  int
}

func (s *stubParser) Name() string { return s.name }

func (s *stubParser) Parse(_ context.Context, _ string) (Intent, error) {
	s.calls++
	return s.intent, s.err
}

func TestFallbackParser_PrimarySucceeds(t *testing.T) {
	t.Parallel()
	primary := &stubParser{name: "openai", intent: Intent{Polarity: PolarityHard, Keywords: []string{"theory"}}}
	f := NewFallbackParser(primary, NewRuleParser())

	res, err := f.Resolve(t.Context(), "easy cs")
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Parser)
	assert.Empty(t, res.FallbackReason)
	assert.Equal(t, PolarityHard, res.Intent.Polarity)
}

func TestFallbackParser_PrimaryFails(t *testing.T) {
	t.Parallel()
	primaryErr := errors.New("connection refused")
	primary := &stubParser{name: "openai", err: primaryErr}
	f := NewFallbackParser(primary, NewRuleParser())

	var hookErr error
	f.OnFallback = func(_ context.Context, name string, err error) {
		assert.Equal(t, "openai", name)
		hookErr = err
	}

	res, err := f.Resolve(t.Context(), "hard cs 580")
	require.NoError(t, err)
	assert.Equal(t, "rule", res.Parser)
	assert.Equal(t, "model_unavailable", res.FallbackReason)
	assert.ErrorIs(t, res.PrimaryErr, primaryErr)
	assert.ErrorIs(t, hookErr, primaryErr)
	assert.Equal(t, "580", res.Intent.ClassNumValue())
	assert.Equal(t, PolarityHard, res.Intent.Polarity)
}

func TestFallbackParser_NoPrimary(t *testing.T) {
	t.Parallel()
	f := NewFallbackParser(nil, NewRuleParser())

	res, err := f.Resolve(t.Context(), "details cs 580 prof yu")
	require.NoError(t, err)
	assert.Equal(t, "rule", res.Parser)
	assert.Empty(t, res.FallbackReason)
	assert.Equal(t, "rule", f.Name())
}

func TestFallbackParser_SecondaryFails(t *testing.T) {
	t.Parallel()
	secondaryErr := errors.New("secondary down")
	f := NewFallbackParser(&stubParser{name: "a", err: errors.New("primary down")}, &stubParser{name: "b", err: secondaryErr})

	_, err := f.Parse(t.Context(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, secondaryErr)
	assert.Equal(t, "a+b", f.Name())
}

func TestFallbackParser_MissingSecondary(t *testing.T) {
	t.Parallel()
	f := NewFallbackParser(&stubParser{name: "a"}, nil)
	_, err := f.Resolve(t.Context(), "x")
	assert.Error(t, err)
}
