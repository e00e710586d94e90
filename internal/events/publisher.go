package events

import (
	"context"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"finsight/internal/adapters/kafka"
	"finsight/internal/domain/report"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Producer sends encoded payloads to a topic
type Producer interface {
	PublishBinary(ctx context.Context, topic string, key []byte, payload []byte) error
}

// Publisher publishes workflow events to Kafka
type Publisher struct {
	producer Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

// PublishRunEvent publishes a run lifecycle event keyed by run id
func (p *Publisher) PublishRunEvent(ctx context.Context, event *report.RunEvent) error {
	msg, err := EncodeRunEvent(event)
	if err != nil {
		return err
	}
	return p.publish(ctx, kafka.TopicWorkflowRuns, event.RunID, msg)
}

// PublishReport publishes a report.persisted notification keyed by run id
func (p *Publisher) PublishReport(ctx context.Context, r *report.Report) error {
	msg, err := EncodeReport(r)
	if err != nil {
		return err
	}
	return p.publish(ctx, kafka.TopicReports, r.RunID, msg)
}

// publish serializes the protobuf message and sends it
func (p *Publisher) publish(ctx context.Context, topic, key string, event *structpb.Struct) error {
	data, err := proto.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal protobuf")
	}

	if err := p.producer.PublishBinary(ctx, topic, []byte(key), data); err != nil {
		p.log.Error("Failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return errors.Wrap(err, "send to kafka")
	}

	p.log.Debug("Event published",
		"topic", topic,
		"key", key,
		"size_bytes", len(data),
	)
	return nil
}
