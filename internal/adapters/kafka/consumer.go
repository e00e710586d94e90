package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

const (
	defaultHandlerAttempts = 3
	retryBackoff           = 500 * time.Millisecond
	readErrorBackoff       = time.Second
)

// MessageHandler processes one message
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// fetcher is the part of *kafka.Reader the loop needs
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic as part of a consumer group. Offsets are committed
// only after the handler is done with a message (at-least-once delivery).
type Consumer struct {
	reader   fetcher
	attempts int
	log      *logger.Logger
}

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	// HandlerAttempts bounds retries of transient handler errors; default 3
	HandlerAttempts int
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(reader, cfg.Topic, cfg.HandlerAttempts)
}

func newConsumer(r fetcher, topic string, attempts int) *Consumer {
	if attempts <= 0 {
		attempts = defaultHandlerAttempts
	}
	return &Consumer{
		reader:   r,
		attempts: attempts,
		log:      logger.Get().With("component", "kafka_consumer", "topic", topic),
	}
}

// Consume runs until ctx is cancelled.
// Transient handler errors are retried; any other error skips the message,
// since a malformed event will never decode on redelivery.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.log.Info("Starting consumer")
	defer c.log.Info("Consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Errorw("Failed to fetch message", "error", err)
			if !sleep(ctx, readErrorBackoff) {
				return ctx.Err()
			}
			continue
		}

		if err := c.handle(ctx, handler, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Errorw("Dropping message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warnw("Failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		err = handler(ctx, msg)
		if err == nil || !errors.IsTransient(err) {
			return err
		}
		if attempt < c.attempts && !sleep(ctx, retryBackoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}
	return errors.Wrapf(err, "gave up after %d attempts", c.attempts)
}

// Close closes the reader; safe to call twice
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
