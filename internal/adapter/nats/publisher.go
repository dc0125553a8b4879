package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectOrderCreated         = "adoption.order.created"
	SubjectOrderPaymentFailed   = "adoption.order.payment_failed"
	SubjectRequestDelivered     = "adoption.request.delivered"
	SubjectListingStatusChanged = "adoption.listing.status_changed"
)

type MessagePublisher interface {
	Publish(ctx context.Context, subject string, message interface{}) error
}

type conn interface {
	Publish(subject string, data []byte) error
}

type natsPublisher struct {
	conn conn
}

func NewNATSPublisher(nc *nats.Conn) (MessagePublisher, error) {
	if nc == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return &natsPublisher{conn: nc}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON for subject %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message to NATS subject %s: %w", subject, err)
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher is used when no NATS URL is configured.
func NewNoopPublisher() MessagePublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }
