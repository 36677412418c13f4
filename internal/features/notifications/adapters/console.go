package adapters

import (
	"context"
	"time"

	"freightdesk/internal/core/logger"
	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"

	"go.uber.org/zap"
)

// ConsoleTransport writes messages to the log instead of sending them.
type ConsoleTransport struct {
	log *zap.Logger
}

// NewConsoleTransport creates a ConsoleTransport.
func NewConsoleTransport() *ConsoleTransport {
	return &ConsoleTransport{log: logger.Named("mail-console")}
}

// consoleFrom stands in for an unset sender; nothing leaves the process.
const consoleFrom = "freightdesk@localhost"

// Name returns "console".
func (t *ConsoleTransport) Name() string { return domain.TransportConsole }

// Deliver logs msg and accepts every recipient.
func (t *ConsoleTransport) Deliver(ctx context.Context, from string, msg domain.Message) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	if from == "" {
		from = consoleFrom
	}
	id := newMessageID(from)
	body, err := buildMessage(from, id, msg, time.Now().UTC())
	if err != nil {
		return domain.Result{}, err
	}

	t.log.Info("Mail (console transport)",
		zap.String("message_id", id),
		zap.String("from", from),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.ByteString("body", body),
	)
	return domain.Result{
		OK:        true,
		Mode:      t.Name(),
		MessageID: id,
		Accepted:  append([]string(nil), msg.To...),
		Response:  "250 logged",
	}, nil
}

// NewTransport returns the transport selected by cfg.Transport.
func NewTransport(cfg domain.MailConfig) (ports.Transport, error) {
	if cfg.Transport != domain.TransportSMTP {
		return NewConsoleTransport(), nil
	}
	t, err := NewSMTPTransport(cfg)
	if err != nil {
		return nil, err
	}
	return t, nil
}
