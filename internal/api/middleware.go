package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"finsight/internal/metrics"
	"finsight/pkg/logger"
)

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records latency per route pattern, never per raw path, so
// /reports/{run_id} stays one series
func instrument(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				log.Errorw("HTTP handler panicked", "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
				rec.WriteHeader(http.StatusInternalServerError)
			}

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			took := time.Since(start)
			metrics.RecordHTTPRequest(route, rec.status, took)

			// probes and scrapes are too chatty for info
			if route == "/metrics" || route == "/live" || route == "/ready" {
				return
			}
			log.Infow("HTTP request", "method", r.Method, "route", route, "status", rec.status, "duration_ms", took.Milliseconds())
		}()

		next.ServeHTTP(rec, r)
	})
}
