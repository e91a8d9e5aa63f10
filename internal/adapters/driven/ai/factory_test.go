package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.EmbeddingSettings
		wantModel string
		wantErr   bool
	}{
		{
			name:      "hashing",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderHashing, Dimensions: 128},
			wantModel: "hashing-v1-128",
		},
		{
			name:      "empty provider falls back to hashing",
			settings:  domain.EmbeddingSettings{Dimensions: 64},
			wantModel: "hashing-v1-64",
		},
		{
			name:      "ollama",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOllama, Model: "nomic-embed-text", Dimensions: 768},
			wantModel: "ollama:nomic-embed-text",
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "openai"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.LLMSettings
		wantModel string
		wantErr   string
	}{
		{
			name:      "groq uses default model",
			settings:  domain.LLMSettings{Provider: domain.AIProviderGroq, APIKey: "gsk"},
			wantModel: "llama-3.1-8b-instant",
		},
		{
			name:      "model override",
			settings:  domain.LLMSettings{Provider: domain.AIProviderGroq, APIKey: "gsk", Model: "mixtral-8x7b-32768"},
			wantModel: "mixtral-8x7b-32768",
		},
		{
			name:      "openai",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "anthropic",
			settings:  domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "sk-ant"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:      "ollama needs no key",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:     "groq without key",
			settings: domain.LLMSettings{Provider: domain.AIProviderGroq},
			wantErr:  "GROQ_API_KEY",
		},
		{
			name:     "unknown provider",
			settings: domain.LLMSettings{Provider: "mistral", APIKey: "k"},
			wantErr:  "unsupported LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfig)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestValidateLLMConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ok := domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
	assert.NoError(t, ValidateLLMConfig(context.Background(), ok))

	down := domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", BaseURL: srv.URL}
	err := ValidateLLMConfig(context.Background(), down)
	require.Error(t, err)
	assert.Equal(t, domain.ErrGeneration, domain.KindOf(err))
	assert.Contains(t, err.Error(), "openai unreachable")

	_, err = CreateLLMService(domain.LLMSettings{Provider: domain.AIProviderGroq})
	require.Error(t, err)
	assert.ErrorIs(t, ValidateLLMConfig(context.Background(), domain.LLMSettings{Provider: domain.AIProviderGroq}), domain.ErrConfig)
}
