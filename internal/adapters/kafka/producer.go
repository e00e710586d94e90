package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"finsight/pkg/logger"
)

// Producer publishes messages, one writer per topic
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	brokers []string
	timeout time.Duration
	log     *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	WriteTimeout time.Duration
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		timeout: cfg.WriteTimeout,
		log:     logger.Get().With("component", "kafka_producer"),
	}
}

func (p *Producer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // same run id, same partition
		AllowAutoTopicCreation: true,
	}
	if p.timeout > 0 {
		w.WriteTimeout = p.timeout
	}
	p.writers[topic] = w
	return w
}

// PublishBinary sends an already encoded payload
func (p *Producer) PublishBinary(ctx context.Context, topic string, key []byte, payload []byte) error {
	msg := kafka.Message{Key: key, Value: payload}

	if err := p.writer(topic).WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish", "topic", topic, "key", string(key), "error", err)
		return err
	}

	p.log.Debug("Published", "topic", topic, "key", string(key))
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Error("Failed to close writer", "topic", topic, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
