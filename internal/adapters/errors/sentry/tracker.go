package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"finsight/pkg/errors"
)

const flushTimeout = 2 * time.Second

var levels = map[errors.Level]sentry.Level{
	errors.LevelDebug:   sentry.LevelDebug,
	errors.LevelInfo:    sentry.LevelInfo,
	errors.LevelWarning: sentry.LevelWarning,
	errors.LevelError:   sentry.LevelError,
	errors.LevelFatal:   sentry.LevelFatal,
}

// Tracker sends errors to Sentry. Every capture gets its own scope, so tags
// of concurrent runs never leak into each other.
type Tracker struct {
	hub *sentry.Hub
}

// New initializes the Sentry SDK
func New(dsn, environment, release string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init sentry")
	}
	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// CaptureError reports err. Issues are grouped by workflow, step and error
// kind rather than by message, because messages carry run-specific values.
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	kind := errors.KindOf(err)
	t.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetTag("error_kind", kind.String())
		if tags["workflow"] != "" {
			scope.SetFingerprint([]string{tags["workflow"], tags["step"], kind.String()})
		}
		t.hub.CaptureException(err)
	})
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	t.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(toSentryLevel(level))
		t.hub.CaptureMessage(message)
	})
	return nil
}

func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
	t.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Message:   message,
		Category:  category,
		Level:     toSentryLevel(level),
		Data:      data,
		Timestamp: time.Now(),
	}, nil)
}

func (t *Tracker) Flush(ctx context.Context) error {
	timeout := flushTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if !t.hub.Flush(timeout) {
		return errors.Wrap(errors.ErrTimeout, "sentry flush")
	}
	return nil
}

func toSentryLevel(level errors.Level) sentry.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return sentry.LevelInfo
}
