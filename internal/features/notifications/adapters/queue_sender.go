package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"
)

// QueueSender enqueues messages for the mailer worker instead of sending them.
type QueueSender struct {
	publisher ports.QueuePublisher
	queue     string
}

// NewQueueSender creates a QueueSender publishing to queue.
func NewQueueSender(p ports.QueuePublisher, queue string) *QueueSender {
	return &QueueSender{publisher: p, queue: queue}
}

// Send validates and enqueues msg. The result reports mode "queue".
func (s *QueueSender) Send(ctx context.Context, msg domain.Message) (domain.Result, error) {
	if err := msg.Validate(); err != nil {
		return domain.Result{}, err
	}
	msg.To = msg.Recipients()

	body, err := json.Marshal(msg)
	if err != nil {
		return domain.Result{}, fmt.Errorf("encode mail job: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.queue, body); err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		OK:       true,
		Mode:     "queue",
		Accepted: msg.To,
		Response: "queued on " + s.queue,
	}, nil
}
