package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
)

type stubLLM struct {
	calls atomic.Int32
	err   error
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "echo: " + prompt, nil
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

func TestGenerate_PassThrough(t *testing.T) {
	next := &stubLLM{}
	g := New(next, Config{})

	out, err := g.Generate(context.Background(), "hi", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
	assert.Equal(t, "disabled", g.State())
	assert.Equal(t, "stub", g.ModelName())
	assert.NoError(t, g.Ping(context.Background()))
	assert.NoError(t, g.Close())
}

func TestGenerate_BreakerOpens(t *testing.T) {
	next := &stubLLM{err: errors.New("upstream 500")}
	g := New(next, Config{Failures: 2, Cooldown: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), "q", driven.GenerateOptions{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrLLMUnavailable)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Generate(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, int32(2), next.calls.Load(), "open breaker must not reach the provider")
}

func TestGenerate_CancelDoesNotTrip(t *testing.T) {
	next := &stubLLM{err: context.Canceled}
	g := New(next, Config{Failures: 1, Cooldown: time.Hour})

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "q", driven.GenerateOptions{})
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", g.State())
}

func TestGenerate_RateLimitHonoursContext(t *testing.T) {
	next := &stubLLM{}
	g := New(next, Config{RequestsPerMinute: 1})

	_, err := g.Generate(context.Background(), "first", driven.GenerateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = g.Generate(ctx, "second", driven.GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), next.calls.Load())
}
