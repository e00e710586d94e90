package consumers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	kafkaadapter "finsight/internal/adapters/kafka"
	"finsight/internal/domain/report"
	"finsight/internal/events"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// sliceSource delivers a fixed set of messages, then blocks until ctx is done
type sliceSource struct {
	msgs      []kafka.Message
	handleErr []error
	closed    bool
}

func (s *sliceSource) Consume(ctx context.Context, handler kafkaadapter.MessageHandler) error {
	for _, m := range s.msgs {
		s.handleErr = append(s.handleErr, handler(ctx, m))
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

type memoryEventStore struct {
	mu      sync.Mutex
	events  []*report.RunEvent
	started bool
	stopped bool
}

func (m *memoryEventStore) Start(ctx context.Context) { m.started = true }

func (m *memoryEventStore) Stop(ctx context.Context) error {
	m.stopped = true
	return nil
}

func (m *memoryEventStore) Store(ctx context.Context, e *report.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func encodedRunEvent(t *testing.T, e *report.RunEvent) []byte {
	t.Helper()
	s, err := events.EncodeRunEvent(e)
	require.NoError(t, err)
	data, err := proto.Marshal(s)
	require.NoError(t, err)
	return data
}

func TestRunEventsConsumer_StoresDecodedEvents(t *testing.T) {
	occurred := time.Date(2026, 3, 2, 5, 0, 1, 0, time.UTC)
	good := encodedRunEvent(t, &report.RunEvent{
		RunID:      "run-1",
		Kind:       report.KindMarketNews,
		Status:     report.RunStepCompleted,
		Step:       "news_search",
		DurationMs: 420,
		OccurredAt: occurred,
	})

	source := &sliceSource{msgs: []kafka.Message{
		{Value: good},
		{Value: []byte("not protobuf"), Offset: 7},
	}}
	store := &memoryEventStore{}
	c := NewRunEventsConsumer(source, store, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	require.Len(t, store.events, 1)
	got := store.events[0]
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, report.RunStepCompleted, got.Status)
	assert.Equal(t, "news_search", got.Step)
	assert.Equal(t, int64(420), got.DurationMs)
	assert.True(t, occurred.Equal(got.OccurredAt))

	require.Len(t, source.handleErr, 2)
	assert.NoError(t, source.handleErr[0])
	assert.True(t, errors.Is(source.handleErr[1], errors.ErrInvalidInput))

	assert.True(t, store.started)
	assert.True(t, store.stopped)
	assert.True(t, source.closed)
	assert.Equal(t, int64(1), c.rejected.Load())
}
