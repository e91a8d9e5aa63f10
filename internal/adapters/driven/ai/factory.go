// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/animerec/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/animerec/internal/adapters/driven/embedding/ollama"
	anthropicllm "github.com/custodia-labs/animerec/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/animerec/internal/adapters/driven/llm/guard"
	ollamallm "github.com/custodia-labs/animerec/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/animerec/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.EmbeddingProviderHashing, "":
		return hashing.New(settings.Dimensions), nil

	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	default:
		return nil, domain.Errorf(domain.ErrConfig, "ai.embedding", "unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings, wrapped in
// the rate limit and circuit breaker guard.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.Provider.IsValid() {
		return nil, domain.Errorf(domain.ErrConfig, "ai.llm", "unsupported LLM provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, domain.Errorf(domain.ErrConfig, "ai.llm",
			"%s requires an API key; set %s or llm.api_key", settings.Provider, apiKeyEnv(settings.Provider))
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.GroqBaseURL
		}
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrConfig, "ai.llm", err)
	}

	return guard.New(svc, guard.Config{
		RequestsPerMinute: settings.RequestsPerMinute,
		Failures:          settings.BreakerFailures,
		Cooldown:          settings.BreakerCooldown,
	}), nil
}

// ValidateLLMConfig creates an LLM service and pings it. An unreachable
// provider is reported as a generation error.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return domain.Wrap(domain.ErrGeneration, "llm.preflight",
			fmt.Errorf("%s unreachable: %w", settings.Provider, err))
	}
	return nil
}

func apiKeyEnv(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case domain.AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}
