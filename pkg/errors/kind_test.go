package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"not found", Wrap(ErrNotFound, "profile MARKET_NEWS_AGENT"), KindNotFound},
		{"data unavailable", Wrapf(ErrDataUnavailable, "portfolio %s", "default"), KindDataUnavailable},
		{"insufficient history", Wrap(ErrInsufficientHistory, "SPY"), KindInsufficientHistory},
		{"search", Wrap(ErrSearchUnavailable, "pgvector"), KindSearchUnavailable},
		{"deadline", Wrap(context.DeadlineExceeded, "tool call"), KindTimeout},
		{"timeout beats unavailable", Join(ErrTimeout, ErrUnavailable), KindTimeout},
		{"cancelled", Wrap(context.Canceled, "run"), KindCancelled},
		{"validation", NewValidationError("lookback", "must be positive", 0), KindInvalidInput},
		{"unknown", New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Wrap(ErrSearchUnavailable, "index down")))
	assert.True(t, IsTransient(Wrap(ErrTimeout, "llm")))
	assert.True(t, IsTransient(Wrap(ErrUnavailable, "clickhouse")))
	assert.True(t, IsTransient(context.DeadlineExceeded))

	assert.False(t, IsTransient(Wrap(ErrDataUnavailable, "no allocation")))
	assert.False(t, IsTransient(Wrap(ErrInsufficientHistory, "QQQ")))
	assert.False(t, IsTransient(Wrap(ErrSynthesis, "empty")))
	assert.False(t, IsTransient(nil))
}

func TestMultiError_Is(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(Wrap(ErrDataUnavailable, "GDP"))
	m.Add(Wrap(ErrDataUnavailable, "UNRATE"))

	err := m.ToError()
	assert.Error(t, err)
	assert.True(t, Is(err, ErrDataUnavailable))
	assert.Contains(t, err.Error(), "multiple errors (2)")
}
