package report

import (
	"context"
	"time"
)

// RunStatus is the lifecycle stage a run event reports
type RunStatus string

const (
	RunStarted       RunStatus = "started"
	RunStepCompleted RunStatus = "step_completed"
	RunSucceeded     RunStatus = "succeeded"
	RunFailed        RunStatus = "failed"
)

// RunEvent is published on every lifecycle transition of a run and lands in analytics storage
type RunEvent struct {
	RunID      string    `ch:"run_id" json:"run_id"`
	Kind       Kind      `ch:"workflow_kind" json:"workflow_kind"`
	Status     RunStatus `ch:"status" json:"status"`
	Step       string    `ch:"step" json:"step,omitempty"`
	ErrorKind  string    `ch:"error_kind" json:"error_kind,omitempty"`
	DurationMs int64     `ch:"duration_ms" json:"duration_ms"`
	Warnings   uint32    `ch:"warnings" json:"warnings"`
	OccurredAt time.Time `ch:"occurred_at" json:"occurred_at"`
}

// StatusCount is an aggregated count of events per status
type StatusCount struct {
	Status string `ch:"status"`
	Count  uint64 `ch:"cnt"`
}

// EventRepository stores run events for analytics
type EventRepository interface {
	Store(ctx context.Context, e *RunEvent) error
	CountByStatus(ctx context.Context, kind Kind, since time.Time) ([]StatusCount, error)
}
