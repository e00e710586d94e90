package middleware

import (
	"time"

	"finsight/internal/adapters/config"
	"finsight/internal/tools"
)

// Middleware decorates a tool
type Middleware interface {
	Wrap(t tools.Tool) tools.Tool
}

// Chain applies middleware so that the first one listed is the outermost
func Chain(t tools.Tool, mws ...Middleware) tools.Tool {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i].Wrap(t)
	}
	return t
}

// Standard builds the call policy used by workflow steps: metrics around retries around a per-attempt timeout
func Standard(cfg config.WorkflowConfig, timeout time.Duration) []Middleware {
	return []Middleware{
		MetricsMiddleware{},
		RetryMiddleware{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
			MaxBackoff: cfg.MaxBackoff,
		},
		TimeoutMiddleware{Timeout: timeout},
	}
}
