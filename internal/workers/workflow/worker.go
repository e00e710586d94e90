package workflow

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/adapters/redis"
	"finsight/internal/agents/workflows"
	"finsight/internal/domain/report"
	"finsight/internal/workers"
	"finsight/pkg/errors"
)

// Runner executes workflow runs
type Runner interface {
	Run(ctx context.Context, kind report.Kind) (*workflows.RunResult, error)
}

// SlotLock guards a scheduled slot across replicas. ok is false when another holder has it.
type SlotLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Worker triggers one workflow kind on its cron schedule
type Worker struct {
	*workers.BaseWorker
	runner  Runner
	kind    report.Kind
	lock    SlotLock
	lockTTL time.Duration
	now     func() time.Time
}

// NewWorker creates a worker for kind. lock may be nil for single-replica deployments.
func NewWorker(runner Runner, kind report.Kind, schedule string, lock SlotLock, lockTTL time.Duration, enabled bool) *Worker {
	return &Worker{
		BaseWorker: workers.NewBaseWorker("workflow_"+kind.String(), schedule, enabled),
		runner:     runner,
		kind:       kind,
		lock:       lock,
		lockTTL:    lockTTL,
		now:        time.Now,
	}
}

// Run executes one workflow run unless another replica already owns the current slot
func (w *Worker) Run(ctx context.Context) error {
	start := time.Now()

	if w.lock != nil {
		key := SlotKey(w.kind, w.now())
		release, ok, err := w.lock.TryLock(ctx, key, w.lockTTL)
		if err != nil {
			// Lock store down: run anyway, a duplicate report beats a missing one
			w.Log().Warn("Slot lock unavailable, running without it", "slot", key, "error", err)
		} else if !ok {
			w.Log().Info("Slot already taken by another replica", "slot", key)
			return nil
		} else {
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					w.Log().Warn("Failed to release slot lock", "slot", key, "error", err)
				}
			}()
		}
	}

	res, err := w.runner.Run(ctx, w.kind)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrapf(err, "workflow %s", w.kind)
	}

	w.RecordRun(time.Since(start))
	w.Log().Info("Scheduled workflow run finished", "run_id", res.RunID, "status", res.Status)
	return nil
}

// SlotKey identifies a scheduled slot by kind and minute
func SlotKey(kind report.Kind, at time.Time) string {
	return fmt.Sprintf("workflow:%s:%s", kind, at.UTC().Format("200601021504"))
}

// RedisSlotLock implements SlotLock with SET NX on redis
type RedisSlotLock struct {
	client *redis.Client
}

// NewRedisSlotLock creates a slot lock backed by client
func NewRedisSlotLock(client *redis.Client) *RedisSlotLock {
	return &RedisSlotLock{client: client}
}

func (l *RedisSlotLock) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lock, err := l.client.AcquireLock(ctx, key, ttl)
	if err != nil {
		return nil, false, errors.Join(errors.ErrUnavailable, err)
	}
	if lock == nil {
		return nil, false, nil
	}
	return func(ctx context.Context) error { return l.client.ReleaseLock(ctx, lock) }, true, nil
}
