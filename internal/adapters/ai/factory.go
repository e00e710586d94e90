package ai

import (
	"context"

	"github.com/redis/go-redis/v9"

	"finsight/internal/adapters/config"
	"finsight/pkg/errors"
)

// NewCompleter builds the configured provider wrapped with rate limiting.
// With a redis client and Distributed set, the limit is shared by all replicas.
func NewCompleter(ctx context.Context, cfg config.AIConfig, rdb *redis.Client) (Completer, error) {
	var (
		inner    Completer
		provider ProviderName
		err      error
	)

	switch ProviderName(cfg.Provider) {
	case ProviderNameOpenAI:
		provider = ProviderNameOpenAI
		inner, err = NewOpenAICompleter(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Temperature)
	case ProviderNameGoogle:
		provider = ProviderNameGoogle
		inner, err = NewGeminiCompleter(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.Temperature)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported AI provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewLimited(inner, newLimiter(cfg, provider, rdb), provider), nil
}

func newLimiter(cfg config.AIConfig, provider ProviderName, rdb *redis.Client) RateLimiter {
	if cfg.ReqPerMinute <= 0 {
		return NoOpLimiter{}
	}
	if cfg.Distributed && rdb != nil {
		return NewRedisLimiter(rdb, provider, cfg.ReqPerMinute, cfg.Burst)
	}
	return NewLocalLimiter(provider, cfg.ReqPerMinute, cfg.Burst)
}
