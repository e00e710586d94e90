package ai

import (
	"context"

	"golang.org/x/time/rate"

	"finsight/pkg/errors"
)

// RateLimiter gates completion calls
type RateLimiter interface {
	// Wait blocks until a call may proceed or ctx is done
	Wait(ctx context.Context) error
}

// LocalLimiter is an in-process token bucket, enough for a single replica
type LocalLimiter struct {
	limiter  *rate.Limiter
	provider ProviderName
}

// NewLocalLimiter allows reqPerMinute calls with the given burst
func NewLocalLimiter(provider ProviderName, reqPerMinute float64, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LocalLimiter{
		limiter:  rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst),
		provider: provider,
	}
}

// Wait blocks until a token is available
func (l *LocalLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "provider %s: %v", l.provider, err)
	}
	return nil
}

// NoOpLimiter never blocks
type NoOpLimiter struct{}

// Wait returns immediately
func (NoOpLimiter) Wait(ctx context.Context) error { return nil }
