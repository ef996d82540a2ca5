// Package llm holds the text-generation backends the solver reasons with.
package llm

import (
	"context"
	"fmt"

	"quiz-solver/internal/config"
)

// Provider produces a completion for a system + user prompt pair.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client is a Provider holding resources that must be released.
type Client interface {
	Provider
	Name() string
	Close() error
}

// FromConfig builds the backend selected by LLM_PROVIDER.
func FromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,

			RequestsPerSecond: cfg.LLMRateLimit,
		}), nil
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiOptions{
			APIKey:      cfg.GeminiKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
