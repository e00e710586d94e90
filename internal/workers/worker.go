package workers

import (
	"context"
	"sync"
	"time"

	"finsight/pkg/logger"
)

// Worker is a job the scheduler fires on a cron expression
type Worker interface {
	Name() string
	// Run performs one iteration and returns; overlapping fires are skipped
	Run(ctx context.Context) error
	// Schedule is a six-field cron expression (seconds first), in UTC
	Schedule() string
	Enabled() bool
}

// WorkerWithHealth is implemented by workers that track their own runs
type WorkerWithHealth interface {
	Worker
	Health() WorkerHealth
}

// WorkerHealth is a point-in-time view of a worker's run history
type WorkerHealth struct {
	Enabled             bool          `json:"enabled"`
	Runs                int64         `json:"runs"`
	Failures            int64         `json:"failures"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastRun             time.Time     `json:"last_run"`
	LastSuccess         time.Time     `json:"last_success"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
}

// BaseWorker carries the name, schedule and run bookkeeping shared by workers.
// Embedders implement Run and call RecordRun or RecordError from it.
type BaseWorker struct {
	name     string
	schedule string
	log      *logger.Logger

	mu     sync.RWMutex
	health WorkerHealth
}

func NewBaseWorker(name, schedule string, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		schedule: schedule,
		log:      logger.Get().With("worker", name),
		health:   WorkerHealth{Enabled: enabled},
	}
}

func (w *BaseWorker) Name() string     { return w.name }
func (w *BaseWorker) Schedule() string { return w.schedule }

func (w *BaseWorker) Log() *logger.Logger { return w.log }

func (w *BaseWorker) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health.Enabled
}

// SetEnabled takes effect on the next scheduler start
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.mu.Lock()
	w.health.Enabled = enabled
	w.mu.Unlock()
	w.log.Infow("Worker enabled state changed", "enabled", enabled)
}

func (w *BaseWorker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health
}

// RecordRun records a successful run and resets the failure streak
func (w *BaseWorker) RecordRun(duration time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.health.Runs++
	w.health.LastRun = now
	w.health.LastSuccess = now
	w.health.LastDuration = duration
	w.health.ConsecutiveFailures = 0
	w.health.LastError = ""
}

// RecordError records a failed run
func (w *BaseWorker) RecordError(err error, duration time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.health.Runs++
	w.health.Failures++
	w.health.ConsecutiveFailures++
	w.health.LastRun = time.Now()
	w.health.LastDuration = duration
	if err != nil {
		w.health.LastError = err.Error()
	}
}
