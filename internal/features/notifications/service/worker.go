package service

import (
	"context"
	"encoding/json"
	"fmt"

	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"
)

// Worker turns queued mail jobs into sends.
type Worker struct {
	sender ports.Sender
}

// NewWorker creates a Worker sending through sender.
func NewWorker(sender ports.Sender) *Worker {
	return &Worker{sender: sender}
}

// Handle decodes one job body and sends it. It matches queue.Handler.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var msg domain.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode mail job: %w", err)
	}
	_, err := w.sender.Send(ctx, msg)
	return err
}
