package postgres

import (
	"context"
	"database/sql"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
)

// Compile-time checks
var (
	_ report.Repository        = (*ReportRepository)(nil)
	_ report.FailureRepository = (*ReportRepository)(nil)
)

// ReportRepository persists reports and failure records
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save upserts a report by run id
func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO workflow_reports (
			run_id, workflow_kind, date_key, text, truncated, snapshot
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			text = EXCLUDED.text,
			truncated = EXCLUDED.truncated,
			snapshot = EXCLUDED.snapshot
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		rep.RunID, rep.Kind, rep.DateKey, rep.Text, rep.Truncated, jsonArg(rep.Snapshot),
	).Scan(&rep.CreatedAt)
	if err != nil {
		return errors.Wrap(errors.Join(errors.ErrStorage, err), "save report")
	}
	return nil
}

// GetByRunID retrieves the report of a run
func (r *ReportRepository) GetByRunID(ctx context.Context, runID string) (*report.Report, error) {
	var rep report.Report
	err := r.db.GetContext(ctx, &rep, `
		SELECT run_id, workflow_kind, date_key, text, truncated, snapshot, created_at
		FROM workflow_reports
		WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "report %s", runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get report by run id")
	}
	return &rep, nil
}

// GetLatest returns the most recent report of a workflow kind
func (r *ReportRepository) GetLatest(ctx context.Context, kind report.Kind) (*report.Report, error) {
	var rep report.Report
	err := r.db.GetContext(ctx, &rep, `
		SELECT run_id, workflow_kind, date_key, text, truncated, snapshot, created_at
		FROM workflow_reports
		WHERE workflow_kind = $1
		ORDER BY created_at DESC
		LIMIT 1`, kind)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "no %s report", kind)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get latest report")
	}
	return &rep, nil
}

// SaveFailure stores the failure record of a run
func (r *ReportRepository) SaveFailure(ctx context.Context, f *report.FailureRecord) error {
	query := `
		INSERT INTO workflow_failures (
			run_id, workflow_kind, step, error_kind, message, snapshot, failed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		f.RunID, f.Kind, f.Step, f.ErrorKind, f.Message, jsonArg(f.Snapshot), f.FailedAt,
	)
	if err != nil {
		return errors.Wrap(errors.Join(errors.ErrStorage, err), "save failure")
	}
	return nil
}

// ListRecentFailures returns the latest failures of a workflow kind
func (r *ReportRepository) ListRecentFailures(ctx context.Context, kind report.Kind, limit int) ([]*report.FailureRecord, error) {
	var out []*report.FailureRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT run_id, workflow_kind, step, error_kind, message, snapshot, failed_at
		FROM workflow_failures
		WHERE workflow_kind = $1
		ORDER BY failed_at DESC
		LIMIT $2`, kind, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list failures")
	}
	return out, nil
}

// jsonArg passes raw JSON as text so jsonb columns accept it
func jsonArg(raw []byte) interface{} {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
