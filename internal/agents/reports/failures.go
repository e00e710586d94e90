package reports

import (
	"context"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// FailureSink records failed runs in storage and in the error tracker
type FailureSink struct {
	repo    report.FailureRepository
	tracker errors.Tracker
	log     *logger.Logger
}

// NewFailureSink creates a failure sink. tracker may be nil.
func NewFailureSink(repo report.FailureRepository, tracker errors.Tracker) *FailureSink {
	return &FailureSink{
		repo:    repo,
		tracker: tracker,
		log:     logger.Get().With("component", "failure_sink"),
	}
}

// Record persists the failure and captures the cause. The cause is never swallowed:
// storage problems are returned so the caller can log them next to the original error.
func (s *FailureSink) Record(ctx context.Context, f *report.FailureRecord, cause error) error {
	if s.tracker != nil && cause != nil {
		_ = s.tracker.CaptureError(ctx, cause, map[string]string{
			"run_id":     f.RunID,
			"workflow":   f.Kind.String(),
			"step":       f.Step,
			"error_kind": f.ErrorKind,
		})
	}

	if err := s.repo.SaveFailure(ctx, f); err != nil {
		return errors.Wrapf(err, "persist failure record %s", f.RunID)
	}

	s.log.Warn("Run failure recorded",
		"run_id", f.RunID,
		"workflow", f.Kind,
		"step", f.Step,
		"error_kind", f.ErrorKind,
	)
	return nil
}
