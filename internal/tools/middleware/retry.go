package middleware

import (
	"context"
	"time"

	"finsight/internal/metrics"
	"finsight/internal/tools"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// RetryMiddleware retries transient tool failures with exponential backoff.
// Non-transient errors (missing data, bad input) are returned immediately.
type RetryMiddleware struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Wrap adds retry semantics to a tool. The error from the last attempt is returned.
func (m RetryMiddleware) Wrap(t tools.Tool) tools.Tool {
	attempts := 1 + m.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	log := logger.Get().With("component", "tool_retry", "tool", t.Name())

	return tools.New(t.Name(), t.Description(), func(ctx context.Context, args interface{}) (interface{}, error) {
		var (
			result interface{}
			err    error
		)
		delay := m.Backoff

		for i := 0; i < attempts; i++ {
			result, err = t.Execute(ctx, args)
			if err == nil || !errors.IsTransient(err) || i == attempts-1 {
				return result, err
			}

			kind := errors.KindOf(err)
			metrics.ToolRetries.WithLabelValues(t.Name(), kind.String()).Inc()
			log.Warn("transient tool failure, retrying", "attempt", i+1, "error_kind", kind, "delay", delay, "error", err)

			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, errors.Join(errors.ErrCancelled, ctx.Err())
				case <-timer.C:
				}
			}
			delay = m.next(delay)
		}

		return result, err
	})
}

func (m RetryMiddleware) next(delay time.Duration) time.Duration {
	delay *= 2
	if m.MaxBackoff > 0 && delay > m.MaxBackoff {
		return m.MaxBackoff
	}
	return delay
}
