package middleware

import (
	"context"
	"time"

	"finsight/internal/metrics"
	"finsight/internal/tools"
)

// MetricsMiddleware records call counts and latency per tool
type MetricsMiddleware struct{}

// Wrap instruments a tool
func (MetricsMiddleware) Wrap(t tools.Tool) tools.Tool {
	return tools.New(t.Name(), t.Description(), func(ctx context.Context, args interface{}) (interface{}, error) {
		start := time.Now()
		result, err := t.Execute(ctx, args)
		metrics.RecordToolCall(t.Name(), time.Since(start), err)
		return result, err
	})
}
