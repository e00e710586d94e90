package ai

import (
	"context"
	"time"

	"finsight/internal/metrics"
	"finsight/pkg/errors"
)

// Limited wraps a Completer with a rate limiter and Prometheus instrumentation
type Limited struct {
	inner    Completer
	limiter  RateLimiter
	provider ProviderName
}

// NewLimited wraps inner. A nil limiter disables rate limiting.
func NewLimited(inner Completer, limiter RateLimiter, provider ProviderName) *Limited {
	if limiter == nil {
		limiter = NoOpLimiter{}
	}
	return &Limited{inner: inner, limiter: limiter, provider: provider}
}

// Complete waits for the limiter, then calls the wrapped completer
func (l *Limited) Complete(ctx context.Context, prompt string, maxLen int) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		metrics.RecordLLMCall(l.provider.String(), 0, "rate_limited")
		return "", err
	}

	start := time.Now()
	text, err := l.inner.Complete(ctx, prompt, maxLen)
	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, errors.ErrRateLimitExceeded) {
			status = "rate_limited"
		}
	}
	metrics.RecordLLMCall(l.provider.String(), time.Since(start), status)

	return text, err
}
