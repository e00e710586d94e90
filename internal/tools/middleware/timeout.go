package middleware

import (
	"context"
	"time"

	"finsight/internal/tools"
	"finsight/pkg/errors"
)

// TimeoutMiddleware enforces per-call deadlines for tool execution.
type TimeoutMiddleware struct {
	Timeout time.Duration
}

// Wrap sets a timeout on tool execution if configured. Expiry of this deadline
// becomes ErrTimeout; cancellation of the parent context is passed through untouched.
func (m TimeoutMiddleware) Wrap(t tools.Tool) tools.Tool {
	if m.Timeout <= 0 {
		return t
	}

	return tools.New(t.Name(), t.Description(), func(ctx context.Context, args interface{}) (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, m.Timeout)
		defer cancel()

		result, err := t.Execute(callCtx, args)
		if err != nil && ctx.Err() == nil && callCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(errors.Join(errors.ErrTimeout, err), "%s exceeded %s", t.Name(), m.Timeout)
		}
		return result, err
	})
}
