package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error|skipped
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"worker"},
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_workflow_runs_total",
			Help: "Total number of workflow runs by outcome",
		},
		[]string{"workflow", "status", "error_kind"}, // status: completed|failed
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_workflow_duration_seconds",
			Help:    "End to end workflow run duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"workflow"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_workflow_step_duration_seconds",
			Help:    "Duration of a single workflow step",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"workflow", "step"},
	)

	// Tool metrics
	ToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_tool_calls_total",
			Help: "Total tool invocations by outcome",
		},
		[]string{"tool", "status"}, // status: success|error
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_tool_latency_seconds",
			Help:    "Tool invocation latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	ToolRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_tool_retries_total",
			Help: "Retries of transient tool failures",
		},
		[]string{"tool", "error_kind"},
	)

	// LLM metrics
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_llm_calls_total",
			Help: "Total completion calls",
		},
		[]string{"provider", "status"}, // status: success|error|rate_limited
	)

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_llm_latency_seconds",
			Help:    "Completion latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	SynthesisWordLimitViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_synthesis_word_limit_violations_total",
			Help: "Completions that exceeded the profile word limit and were truncated",
		},
		[]string{"profile"},
	)

	AllocationWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_allocation_sum_warnings_total",
			Help: "Portfolio snapshots whose allocations do not sum to 100% within tolerance",
		},
		[]string{"portfolio"},
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Reports
	ReportsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_reports_persisted_total",
			Help: "Reports written by the sink",
		},
		[]string{"workflow"},
	)
)

func init() {
	prometheus.MustRegister(
		WorkerExecutions,
		WorkerDuration,
		WorkflowRuns,
		WorkflowDuration,
		StepDuration,
		ToolCalls,
		ToolLatency,
		ToolRetries,
		LLMCalls,
		LLMLatency,
		SynthesisWordLimitViolations,
		AllocationWarnings,
		ReportsPersisted,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordWorkerExecution records one worker iteration
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
}

// RecordWorkflowRun records the outcome of a run. errorKind is empty on success.
func RecordWorkflowRun(workflow string, duration time.Duration, errorKind string) {
	status := "completed"
	if errorKind != "" {
		status = "failed"
	}
	WorkflowRuns.WithLabelValues(workflow, status, errorKind).Inc()
	WorkflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

// RecordToolCall records one tool invocation
func RecordToolCall(tool string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolLatency.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordLLMCall records one completion call
func RecordLLMCall(provider string, duration time.Duration, status string) {
	LLMCalls.WithLabelValues(provider, status).Inc()
	LLMLatency.WithLabelValues(provider).Observe(duration.Seconds())
}
