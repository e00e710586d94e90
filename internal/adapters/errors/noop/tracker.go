// Package noop provides the Tracker used when Sentry is not configured.
// Events are dropped but counted.
package noop

import (
	"context"
	"sync/atomic"

	"finsight/pkg/errors"
)

type Tracker struct {
	errs        atomic.Int64
	messages    atomic.Int64
	breadcrumbs atomic.Int64
}

func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(context.Context, error, map[string]string) error {
	t.errs.Add(1)
	return nil
}

func (t *Tracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	t.messages.Add(1)
	return nil
}

func (t *Tracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
	t.breadcrumbs.Add(1)
}

func (t *Tracker) Flush(context.Context) error {
	return nil
}

// Counts returns how many errors, messages and breadcrumbs were dropped
func (t *Tracker) Counts() (errs, messages, breadcrumbs int64) {
	return t.errs.Load(), t.messages.Load(), t.breadcrumbs.Load()
}
