// Package guard wraps an LLMService with client-side rate limiting and a
// circuit breaker so a failing provider is not hammered by every query.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/logger"
	"github.com/custodia-labs/animerec/internal/metrics"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Config holds guard configuration.
type Config struct {
	// RequestsPerMinute caps generation calls. Zero disables limiting.
	RequestsPerMinute int

	// Failures is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	Failures int

	// Cooldown is how long the breaker stays open before a trial request.
	Cooldown time.Duration
}

// LLMService decorates another LLMService.
type LLMService struct {
	next    driven.LLMService
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	name    string
}

// New wraps next with the configured limits.
func New(next driven.LLMService, cfg Config) *LLMService {
	s := &LLMService{
		next: next,
		name: "llm:" + next.ModelName(),
	}

	if cfg.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		s.limiter = rate.NewLimiter(perSecond, max(1, cfg.RequestsPerMinute/10))
	}

	if cfg.Failures > 0 {
		if cfg.Cooldown <= 0 {
			cfg.Cooldown = 30 * time.Second
		}
		threshold := uint32(cfg.Failures)
		metrics.CircuitBreakerState.WithLabelValues(s.name).Set(0)

		s.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        s.name,
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// Cancelled requests say nothing about provider health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			},
		})
	}

	return s
}

// Generate waits for a rate limit token, then calls the wrapped service
// through the breaker.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limit: %w: %w", domain.ErrRateLimited, err)
		}
	}

	if s.cb == nil {
		return s.next.Generate(ctx, prompt, opts)
	}

	out, err := s.cb.Execute(func() (string, error) {
		return s.next.Generate(ctx, prompt, opts)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "rejected").Inc()
		return "", fmt.Errorf("%s: %w: %w", s.name, domain.ErrLLMUnavailable, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "failure").Inc()
	}
	return out, err
}

// State reports the breaker state, "disabled" when no breaker is configured.
func (s *LLMService) State() string {
	if s.cb == nil {
		return "disabled"
	}
	return s.cb.State().String()
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping bypasses the limiter and breaker.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
