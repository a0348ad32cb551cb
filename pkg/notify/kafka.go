package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/your-org/imagemeta/pkg/kafka"
)

// KafkaOptions tunes the underlying producer.
type KafkaOptions struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  string
	MaxAttempts  int
}

type messageWriter interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
	Close(ctx context.Context) error
}

// KafkaPublisher writes each notification as a JSON message to one topic.
type KafkaPublisher struct {
	producer messageWriter
	topic    string
}

// NewKafka constructs a KafkaPublisher for cfg.Channel.
func NewKafka(cfg Config) *KafkaPublisher {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Channel,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  kafka.CompressionFromString(cfg.Kafka.Compression),
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  cfg.Kafka.MaxAttempts,
	})
	return &KafkaPublisher{producer: producer, topic: cfg.Channel}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	headers := map[string]string{
		"event_type":   "image.uploaded",
		"content_type": "application/json",
	}
	if err := p.producer.Publish(ctx, nil, payload, headers); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close(ctx context.Context) error {
	return p.producer.Close(ctx)
}
