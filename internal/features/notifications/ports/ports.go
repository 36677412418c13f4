package ports

import (
	"context"

	"freightdesk/internal/features/notifications/domain"
)

// Transport delivers a message from a resolved sender address.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, from string, msg domain.Message) (domain.Result, error)
}

// Sender sends a message, either directly or through a queue.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) (domain.Result, error)
}

// QueuePublisher publishes a raw job body to a named queue.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}
