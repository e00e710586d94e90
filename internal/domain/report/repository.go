package report

import "context"

// Repository persists and reads reports
type Repository interface {
	// Save upserts by run id so retried persistence does not duplicate
	Save(ctx context.Context, r *Report) error
	GetByRunID(ctx context.Context, runID string) (*Report, error)
	GetLatest(ctx context.Context, kind Kind) (*Report, error)
}

// FailureRepository persists failure records
type FailureRepository interface {
	SaveFailure(ctx context.Context, f *FailureRecord) error
	ListRecentFailures(ctx context.Context, kind Kind, limit int) ([]*FailureRecord, error)
}
