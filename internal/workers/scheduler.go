package workers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Scheduler triggers workers on their cron schedules
type Scheduler struct {
	workers []Worker
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	log     *logger.Logger
	started bool
}

// NewScheduler creates a new worker scheduler. Schedules use six fields, seconds first.
func NewScheduler() *Scheduler {
	log := logger.Get().With("component", "scheduler")
	return &Scheduler{
		workers: make([]Worker, 0),
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		log: log,
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warn("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Info("Worker registered", "worker", w.Name(), "schedule", w.Schedule())
}

// Start schedules all enabled workers. An invalid cron expression fails the start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, worker := range s.workers {
		if !worker.Enabled() {
			s.log.Info("Skipping disabled worker", "worker", worker.Name())
			continue
		}
		worker := worker
		if _, err := s.cron.AddFunc(worker.Schedule(), func() { s.executeWorker(worker) }); err != nil {
			s.cancel()
			return errors.Wrapf(errors.ErrInvalidInput, "worker %s schedule %q: %v", worker.Name(), worker.Schedule(), err)
		}
	}

	s.cron.Start()
	s.started = true
	s.log.Info("Worker scheduler started", "workers", len(s.workers))
	return nil
}

// Stop cancels running workers and waits for them to return
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	// 2-minute timeout accommodates a workflow run finishing its synthesis step
	done := s.cron.Stop().Done()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(2 * time.Minute):
		s.log.Warn("Worker shutdown timed out after 2 minutes")
		shutdownErr = errors.Wrapf(errors.ErrInternal, "shutdown timeout after 2 minutes")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// Trigger runs a registered worker once, outside its schedule
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	for _, w := range s.GetWorkers() {
		if w.Name() == name {
			return s.execute(ctx, w)
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "worker %s", name)
}

// executeWorker runs one scheduled iteration
func (s *Scheduler) executeWorker(worker Worker) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	if ctx.Err() != nil {
		return
	}
	_ = s.execute(ctx, worker)
}

// execute runs a single iteration of the worker with error handling
func (s *Scheduler) execute(ctx context.Context, worker Worker) (err error) {
	start := time.Now()

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked",
				"worker", worker.Name(),
				"panic", r,
			)
			err = errors.Newf("worker %s panicked: %v", worker.Name(), r)
		}
		metrics.RecordWorkerExecution(worker.Name(), time.Since(start), err)
	}()

	if err = worker.Run(ctx); err != nil {
		s.log.Error("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", time.Since(start),
		)
		return err
	}

	s.log.Debug("Worker execution completed",
		"worker", worker.Name(),
		"duration", time.Since(start),
	)
	return nil
}

// GetWorkers returns a list of all registered workers (for debugging/monitoring)
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// Health returns the health of every worker that reports it
func (s *Scheduler) Health() map[string]WorkerHealth {
	out := make(map[string]WorkerHealth)
	for _, w := range s.GetWorkers() {
		if h, ok := w.(WorkerWithHealth); ok {
			out[w.Name()] = h.Health()
		}
	}
	return out
}

// CheckHealth fails when an enabled worker has failed maxConsecutive times in a row
func (s *Scheduler) CheckHealth(maxConsecutive int) error {
	var failing []string
	for name, h := range s.Health() {
		if h.Enabled && h.ConsecutiveFailures >= maxConsecutive {
			failing = append(failing, fmt.Sprintf("%s (%d: %s)", name, h.ConsecutiveFailures, h.LastError))
		}
	}
	if len(failing) == 0 {
		return nil
	}
	sort.Strings(failing)
	return errors.Wrapf(errors.ErrUnavailable, "failing workers: %s", strings.Join(failing, ", "))
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// cronLogger routes cron's own messages to zap
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, append(keysAndValues, "error", err)...)
}
