package reports

import (
	"context"

	"finsight/internal/domain/report"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Publisher announces persisted reports
type Publisher interface {
	PublishReport(ctx context.Context, r *report.Report) error
}

// Notifier delivers report text to people
type Notifier interface {
	NotifyReport(ctx context.Context, r *report.Report) error
}

// Sink persists reports. Only the write is part of the contract: publishing and
// notification run after it and their failures are logged, not returned.
type Sink struct {
	repo      report.Repository
	publisher Publisher
	notifier  Notifier
	log       *logger.Logger
}

// Option configures a Sink
type Option func(*Sink)

// WithPublisher publishes a report.persisted event after each write
func WithPublisher(p Publisher) Option {
	return func(s *Sink) { s.publisher = p }
}

// WithNotifier sends each persisted report to a notifier
func WithNotifier(n Notifier) Option {
	return func(s *Sink) { s.notifier = n }
}

// NewSink creates a report sink over the repository
func NewSink(repo report.Repository, opts ...Option) *Sink {
	s := &Sink{
		repo: repo,
		log:  logger.Get().With("component", "report_sink"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist upserts the report by run id. A failed write is an ErrStorage.
func (s *Sink) Persist(ctx context.Context, r *report.Report) error {
	if r == nil || r.RunID == "" || !r.Kind.Valid() {
		return errors.Wrap(errors.ErrInvalidInput, "report requires a run id and a known workflow kind")
	}

	if err := s.repo.Save(ctx, r); err != nil {
		if !errors.Is(err, errors.ErrStorage) {
			err = errors.Join(errors.ErrStorage, err)
		}
		return errors.Wrapf(err, "persist report %s", r.RunID)
	}
	metrics.ReportsPersisted.WithLabelValues(r.Kind.String()).Inc()

	s.log.Info("Report persisted",
		"run_id", r.RunID,
		"workflow", r.Kind,
		"date_key", r.DateKey,
		"truncated", r.Truncated,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, r); err != nil {
			s.log.Warn("Failed to publish report event", "run_id", r.RunID, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyReport(ctx, r); err != nil {
			s.log.Warn("Failed to notify report", "run_id", r.RunID, "error", err)
		}
	}
	return nil
}
