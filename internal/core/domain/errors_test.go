package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error kinds exist and are distinct
func TestErrors_Existence(t *testing.T) {
	all := []error{
		ErrConfig, ErrDataLoad, ErrEmbedding, ErrIndexBuild, ErrIndexLoad,
		ErrRetrieval, ErrGeneration, ErrValidation, ErrPipelineInit, ErrPipelineRuntime,
	}

	for i, a := range all {
		assert.NotEmpty(t, a.Error())
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestWrap_PreservesKindAndCause(t *testing.T) {
	cause := context.DeadlineExceeded

	err := Wrap(ErrGeneration, "llm.generate", cause)

	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrRetrieval))
	assert.Equal(t, "llm.generate: generation failed: context deadline exceeded", err.Error())
}

func TestWrap_NestedEnvelope(t *testing.T) {
	inner := Wrap(ErrDataLoad, "catalog.load", errors.New("no rows"))
	outer := Wrap(ErrPipelineInit, "pipeline.new", inner)

	assert.True(t, errors.Is(outer, ErrPipelineInit))
	assert.True(t, errors.Is(outer, ErrDataLoad))

	var de *Error
	require.True(t, errors.As(outer, &de))
	assert.Equal(t, ErrPipelineInit, de.Kind)
}

func TestWrap_NilCause(t *testing.T) {
	err := Wrap(ErrValidation, "pipeline.recommend", nil)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "pipeline.recommend: validation failed", err.Error())
}

func TestErrorf(t *testing.T) {
	err := Errorf(ErrConfig, "settings", "bad value %d", 7)

	assert.True(t, errors.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), "bad value 7")
}

func TestError_StringForms(t *testing.T) {
	assert.Equal(t, "configuration error", (&Error{Kind: ErrConfig}).Error())
	assert.Equal(t, "configuration error: boom",
		(&Error{Kind: ErrConfig, Err: errors.New("boom")}).Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"untagged", errors.New("plain"), nil},
		{"direct", Wrap(ErrEmbedding, "embed", nil), ErrEmbedding},
		{"through envelope", Wrap(ErrPipelineRuntime, "recommend", Wrap(ErrGeneration, "llm", nil)), ErrGeneration},
		{"through fmt wrap", fmt.Errorf("ctx: %w", Wrap(ErrIndexLoad, "load", nil)), ErrIndexLoad},
		{"envelope only", Wrap(ErrPipelineInit, "new", errors.New("x")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestExplain(t *testing.T) {
	secret := errors.New("Authorization: Bearer gsk-secret")

	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantHint string
	}{
		{"validation", Wrap(ErrPipelineRuntime, "op", Wrap(ErrValidation, "v", secret)), "can't be used", "mecha action series"},
		{"config", Wrap(ErrPipelineInit, "op", Wrap(ErrConfig, "c", secret)), "not configured", "PROCESSED_CSV_PATH"},
		{"index", Wrap(ErrIndexLoad, "op", secret), "index is unavailable", "index build --force"},
		{"rate limited", Wrap(ErrGeneration, "op", fmt.Errorf("429: %w", ErrRateLimited)), "busy", "Wait"},
		{"breaker open", Wrap(ErrGeneration, "op", ErrLLMUnavailable), "temporarily unavailable", "paused"},
		{"generation", Wrap(ErrGeneration, "op", secret), "did not respond", "API key"},
		{"untagged", secret, "Something went wrong", "--verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, hint := Explain(tt.err)

			assert.Contains(t, msg, tt.wantMsg)
			assert.Contains(t, hint, tt.wantHint)
			assert.NotContains(t, msg+hint, "gsk-secret")
		})
	}
}
