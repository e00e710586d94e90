package consumers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	kafkaadapter "finsight/internal/adapters/kafka"
	"finsight/internal/domain/report"
	"finsight/internal/events"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// MessageSource is the subset of *kafkaadapter.Consumer used here
type MessageSource interface {
	Consume(ctx context.Context, handler kafkaadapter.MessageHandler) error
	Close() error
}

// EventStore buffers run events for batch insertion
type EventStore interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Store(ctx context.Context, e *report.RunEvent) error
}

// RunEventsConsumer reads workflow run events from Kafka and writes them to ClickHouse in batches.
// This keeps analytics writes off the workflow path.
type RunEventsConsumer struct {
	source        MessageSource
	store         EventStore
	statsInterval time.Duration
	log           *logger.Logger

	received atomic.Int64
	stored   atomic.Int64
	rejected atomic.Int64
}

// NewRunEventsConsumer creates a new run events consumer
func NewRunEventsConsumer(source MessageSource, store EventStore, log *logger.Logger) *RunEventsConsumer {
	return &RunEventsConsumer{
		source:        source,
		store:         store,
		statsInterval: time.Minute,
		log:           log,
	}
}

// Start consumes until ctx is cancelled, then flushes the batch writer and closes the reader
func (c *RunEventsConsumer) Start(ctx context.Context) error {
	c.log.Info("Starting run events consumer (writes to ClickHouse in batches)...")

	c.store.Start(ctx)

	defer func() {
		if err := c.source.Close(); err != nil {
			c.log.Error("Failed to close run events consumer", "error", err)
		}
	}()

	// Stop after Close so the final flush sees every buffered event
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.store.Stop(stopCtx); err != nil {
			c.log.Error("Failed to stop run events batch writer", "error", err)
		}
		c.LogStats(true)
	}()

	go c.periodicStatsLog(ctx)

	err := c.source.Consume(ctx, c.handle)
	if ctx.Err() != nil {
		c.log.Info("Run events consumer stopping (context cancelled)")
		return nil
	}
	return err
}

// handle decodes one message and buffers the event
func (c *RunEventsConsumer) handle(ctx context.Context, msg kafka.Message) error {
	c.received.Add(1)

	e, err := events.DecodeRunEvent(msg.Value)
	if err != nil {
		c.rejected.Add(1)
		return errors.Wrapf(err, "decode run event at offset %d", msg.Offset)
	}

	if err := c.store.Store(ctx, e); err != nil {
		return errors.Wrap(err, "failed to store run event")
	}
	c.stored.Add(1)

	c.log.Debug("Run event buffered for batch insert",
		"run_id", e.RunID,
		"status", e.Status,
		"step", e.Step,
	)
	return nil
}

func (c *RunEventsConsumer) periodicStatsLog(ctx context.Context) {
	ticker := time.NewTicker(c.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.LogStats(false)
		}
	}
}

// LogStats logs consumer counters (final is true on shutdown)
func (c *RunEventsConsumer) LogStats(final bool) {
	msg := "Run events consumer stats"
	if final {
		msg = "Run events consumer final stats"
	}
	c.log.Info(msg,
		"received", c.received.Load(),
		"stored", c.stored.Load(),
		"rejected", c.rejected.Load(),
	)
}
