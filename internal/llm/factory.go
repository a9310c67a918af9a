package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/gilbot/internal/logger"
)

// NewProvider creates a Provider from configuration, wrapped with the
// decorator chain: caller → timeout → retry → rate limit → logging → base.
// events may be nil, in which case requests are only logged, not recorded.
func NewProvider(ctx context.Context, cfg Config, events EventWriter, log *logger.Logger) (Provider, error) {
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
		base = NewOfflineProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, events, log)
	p = WithRateLimit(p, cfg.RateLimit)
	if cfg.Retry.MaxAttempts > 1 {
		p = WithRetry(p, cfg.Retry)
	}
	p = WithTimeout(p, cfg.Timeout)

	return p, nil
}

// NewProviderFromEnv resolves configuration from GILBOT_* variables, falling
// back to well-known vendor API key variables when the configured provider
// has no key.
func NewProviderFromEnv(ctx context.Context, events EventWriter, log *logger.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		discovered.Retry = cfg.Retry
		discovered.RateLimit = cfg.RateLimit
		discovered.Timeout = cfg.Timeout
		cfg = discovered
	}
	return NewProvider(ctx, cfg, events, log)
}
