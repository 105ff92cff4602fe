package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/config"
)

// KafkaPublisher mirrors the intake decision stream to a Kafka topic for
// downstream observability. Publishing is best-effort: a broker outage
// never fails the intake request.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher for the configured brokers/topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// RegisterHandlers subscribes the publisher to the full decision stream.
func (p *KafkaPublisher) RegisterHandlers(dispatcher Dispatcher) {
	for _, eventType := range AllTypes() {
		dispatcher.Subscribe(eventType, p.handleEvent)
	}
}

func (p *KafkaPublisher) handleEvent(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.ThreadID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("kafka publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
