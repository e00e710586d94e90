package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"finsight/pkg/errors"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Logger wraps zap.SugaredLogger and forwards errors to the tracker when one is set
type Logger struct {
	*zap.SugaredLogger
	tracker *trackerRef
}

// trackerRef is shared by a logger and all of its children so SetErrorTracker reaches them
type trackerRef struct {
	mu      sync.RWMutex
	tracker errors.Tracker
}

func (r *trackerRef) get() errors.Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tracker
}

// Init initializes the global logger
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalLogger = &Logger{SugaredLogger: base.Sugar(), tracker: &trackerRef{}}
	globalMu.Unlock()
	return nil
}

// NewNop returns a logger that discards everything, handy in tests
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), tracker: &trackerRef{}}
}

// SetErrorTracker sets the tracker used for automatic error reporting
func SetErrorTracker(tracker errors.Tracker) {
	l := Get()
	l.tracker.mu.Lock()
	l.tracker.tracker = tracker
	l.tracker.mu.Unlock()
}

// Get returns the global logger
func Get() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		base, _ := zap.NewDevelopment()
		globalLogger = &Logger{SugaredLogger: base.Sugar(), tracker: &trackerRef{}}
	}
	return globalLogger
}

// With creates a child logger with additional key/value pairs
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		tracker:       l.tracker,
	}
}

// WithFields creates a child logger with a map of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.With(args...)
}

// Error logs with key/value pairs and reports to the tracker.
// Usage matches zap's sugared Infow style: log.Error("msg", "key", val).
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)

	if t := l.tracker.get(); t != nil {
		t.CaptureError(context.Background(), errors.Wrap(errors.ErrInternal, msg), tagsFrom(keysAndValues))
	}
}

// Errorf logs a formatted error and reports to the tracker
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)

	if t := l.tracker.get(); t != nil {
		t.CaptureError(context.Background(), fmt.Errorf(template, args...), map[string]string{
			"component": "logger",
		})
	}
}

// ErrorWithContext logs err and reports it with explicit tags
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.SugaredLogger.Errorw(err.Error(), "tags", tags)

	if t := l.tracker.get(); t != nil {
		t.CaptureError(ctx, err, tags)
	}
}

// Info logs a message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

// Warn logs a message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

// Debug logs a message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

func tagsFrom(keysAndValues []interface{}) map[string]string {
	tags := map[string]string{"component": "logger"}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		tags[key] = fmt.Sprint(keysAndValues[i+1])
	}
	return tags
}

// Convenience functions that use the global logger
func Debug(msg string, kv ...interface{})         { Get().Debug(msg, kv...) }
func Debugf(template string, args ...interface{}) { Get().Debugf(template, args...) }
func Info(msg string, kv ...interface{})          { Get().Info(msg, kv...) }
func Infof(template string, args ...interface{})  { Get().Infof(template, args...) }
func Warn(msg string, kv ...interface{})          { Get().Warn(msg, kv...) }
func Warnf(template string, args ...interface{})  { Get().Warnf(template, args...) }
func Error(msg string, kv ...interface{})         { Get().Error(msg, kv...) }
func Errorf(template string, args ...interface{}) { Get().Errorf(template, args...) }
func Fatalf(template string, args ...interface{}) { Get().Fatalf(template, args...) }

// Sync flushes any buffered log entries
func Sync() error {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
