package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates a Provider from configuration for a single backend.
// It returns the provider wrapped with limiter, logging, and retry
// middleware: caller → retry → limit → logging → base.
func NewProvider(ctx context.Context, cfg Config, limiter *Limiter, logger *zap.Logger) (Provider, error) {
	base, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return base, nil
	}

	logged := WithLogging(base, logger)
	limited := WithLimit(logged, limiter)
	retried := WithRetry(limited, cfg.Retry)

	return retried, nil
}

func newBaseProvider(ctx context.Context, cfg Config) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return base, nil
}
