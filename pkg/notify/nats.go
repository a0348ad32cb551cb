package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes notifications as JSON to a single subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to cfg.NATSURL.
func NewNATS(cfg Config, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{
		nats.Name("imagemeta-extractor"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(3),
	}, opts...)

	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: nc, subject: cfg.Channel}, nil
}

// Publish sends msg and flushes so a rejected connection is reported now
// rather than lost when the invocation ends.
func (p *NATSPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close(ctx context.Context) error {
	return p.conn.Drain()
}
