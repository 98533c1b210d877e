package llm

import (
	"fmt"
	"time"

	"github.com/codegate/api/internal/config"
)

// NewProvider creates an LLM provider from the AI validator configuration.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: AI validation is disabled", ErrProviderNotConfigured)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch ProviderType(cfg.Provider) {
	case ProviderTypeClaude, "":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not configured", ErrProviderNotConfigured)
		}
		return NewClaudeProvider(ClaudeConfig{
			APIKey:     cfg.AnthropicAPIKey,
			Model:      cfg.Model,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
		})

	case ProviderTypeOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not configured", ErrProviderNotConfigured)
		}
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.Model,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, cfg.Provider)
	}
}
