package repository

import (
	"context"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/kafka"
)

// KafkaEventSink mirrors dispatched events onto a Kafka topic, keyed by
// ticker for per-ticker ordering. At-most-once.
type KafkaEventSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventSink(producer *kafka.Producer, topic string) *KafkaEventSink {
	return &KafkaEventSink{producer: producer, topic: topic}
}

func (s *KafkaEventSink) Publish(ctx context.Context, ev models.NotificationEvent) error {
	return s.producer.Publish(ctx, s.topic, []byte(ev.Ticker), ev)
}

func (s *KafkaEventSink) Close() error {
	return s.producer.Close()
}
