package errors

import "context"

// Tracker ships errors to an external service. The logger forwards every
// Error-level entry to the registered Tracker.
type Tracker interface {
	// CaptureError records err; tags carry run_id, workflow and step
	CaptureError(ctx context.Context, err error, tags map[string]string) error
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error
	// AddBreadcrumb marks a completed step so a later failure shows the path to it
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})
	Flush(ctx context.Context) error
}

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string { return string(l) }
