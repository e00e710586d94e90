package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"finsight/internal/domain/report"
	"finsight/pkg/clickhouse"
	"finsight/pkg/errors"
)

// Compile-time check
var _ report.EventRepository = (*RunEventRepository)(nil)

// RunEventRepository stores run lifecycle events, buffered through a batch writer
type RunEventRepository struct {
	conn   driver.Conn
	writer *clickhouse.BatchWriter[*report.RunEvent]
}

// NewRunEventRepository creates a repository; call Start to enable periodic flushing
func NewRunEventRepository(conn driver.Conn) *RunEventRepository {
	repo := &RunEventRepository{conn: conn}
	repo.writer = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig[*report.RunEvent]{
		Flush:        repo.flush,
		Table:        "workflow_run_events",
		MaxBatchSize: 200,
		MaxAge:       5 * time.Second,
	})
	return repo
}

// Start begins the background flush loop
func (r *RunEventRepository) Start(ctx context.Context) {
	r.writer.Start(ctx)
}

// Stop flushes buffered events
func (r *RunEventRepository) Stop(ctx context.Context) error {
	return r.writer.Stop(ctx)
}

// Store buffers an event
func (r *RunEventRepository) Store(ctx context.Context, e *report.RunEvent) error {
	return r.writer.Add(ctx, e)
}

func (r *RunEventRepository) flush(ctx context.Context, events []*report.RunEvent) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO workflow_run_events (
			run_id, workflow_kind, status, step, error_kind, duration_ms, warnings, occurred_at
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, e := range events {
		if err := batch.Append(
			e.RunID, string(e.Kind), string(e.Status), e.Step, e.ErrorKind,
			e.DurationMs, e.Warnings, e.OccurredAt,
		); err != nil {
			return errors.Wrap(err, "failed to append run event")
		}
	}

	return batch.Send()
}

// CountByStatus aggregates events of a workflow kind since a point in time
func (r *RunEventRepository) CountByStatus(ctx context.Context, kind report.Kind, since time.Time) ([]report.StatusCount, error) {
	var out []report.StatusCount

	query := `
		SELECT status, count() AS cnt
		FROM workflow_run_events
		WHERE workflow_kind = $1 AND occurred_at >= $2
		GROUP BY status
		ORDER BY status`

	if err := r.conn.Select(ctx, &out, query, string(kind), since); err != nil {
		return nil, errors.Wrap(err, "count run events")
	}
	return out, nil
}
