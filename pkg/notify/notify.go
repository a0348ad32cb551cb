package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is a human-readable notification.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher delivers a message to one statically configured channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close(ctx context.Context) error
}

// Config selects and configures a notification backend.
type Config struct {
	Provider string
	// Channel is the SNS topic ARN, Kafka topic or NATS subject.
	Channel  string
	Endpoint string
	Region   string
	NATSURL  string
	Kafka    KafkaOptions
}

// New creates a publisher based on the given configuration.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	if cfg.Channel == "" {
		return nil, errors.New("notification channel is required")
	}

	var (
		pub Publisher
		err error
	)
	switch cfg.Provider {
	case "sns":
		pub, err = NewSNS(ctx, cfg)
	case "kafka":
		pub = NewKafka(cfg)
	case "nats":
		pub, err = NewNATS(cfg)
	default:
		return nil, fmt.Errorf("unsupported notification provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return pub, nil
}
