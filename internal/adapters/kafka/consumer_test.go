package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

// queueReader serves a fixed set of messages, then blocks until ctx ends
type queueReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (q *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	q.mu.Lock()
	if len(q.msgs) > 0 {
		m := q.msgs[0]
		q.msgs = q.msgs[1:]
		q.mu.Unlock()
		return m, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (q *queueReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range msgs {
		q.committed = append(q.committed, m.Offset)
	}
	return nil
}

func (q *queueReader) Close() error {
	q.closed = true
	return nil
}

func (q *queueReader) commits() []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int64(nil), q.committed...)
}

func TestConsumer_CommitsAfterHandling(t *testing.T) {
	r := &queueReader{msgs: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	c := newConsumer(r, "test", 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := map[int64]int{}
	var mu sync.Mutex
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(ctx context.Context, msg kafka.Message) error {
			mu.Lock()
			defer mu.Unlock()
			calls[msg.Offset]++
			switch msg.Offset {
			case 2:
				return errors.Wrap(errors.ErrInvalidInput, "bad payload")
			case 3:
				return errors.Wrap(errors.ErrUnavailable, "store down")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(r.commits()) == 3 }, time.Second*5, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls[1])
	assert.Equal(t, 1, calls[2], "permanent errors are not retried")
	assert.Equal(t, 2, calls[3], "transient errors are retried up to the limit")
	assert.Equal(t, []int64{1, 2, 3}, r.commits())
}

func TestConsumer_Close(t *testing.T) {
	r := &queueReader{}
	require.NoError(t, newConsumer(r, "test", 0).Close())
	assert.True(t, r.closed)
}
