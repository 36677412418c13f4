package service

import (
	"context"

	"freightdesk/internal/core/logger"
	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"

	"go.uber.org/zap"
)

// Dispatcher validates messages, resolves the sender and hands them to the
// configured transport.
type Dispatcher struct {
	transport ports.Transport
	cfg       domain.MailConfig
	log       *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(t ports.Transport, cfg domain.MailConfig) *Dispatcher {
	return &Dispatcher{transport: t, cfg: cfg, log: logger.Named("mailer")}
}

// Send delivers msg. Any rejected recipient fails the send with
// SMTP_RECIPIENT_REJECTED carrying the rejected list.
func (d *Dispatcher) Send(ctx context.Context, msg domain.Message) (domain.Result, error) {
	if err := msg.Validate(); err != nil {
		return domain.Result{}, err
	}
	msg.To = msg.Recipients()

	res, err := d.transport.Deliver(ctx, d.cfg.ResolveFrom(msg), msg)
	if err != nil {
		return domain.Result{}, err
	}
	if len(res.Rejected) > 0 {
		d.log.Warn("Recipients rejected",
			zap.String("message_id", res.MessageID),
			zap.Strings("rejected", res.Rejected),
		)
		return res, &domain.MailError{
			Code:     domain.CodeRecipientRejected,
			Detail:   "the mail server rejected one or more recipients",
			Rejected: res.Rejected,
		}
	}

	d.log.Info("Mail sent",
		zap.String("mode", res.Mode),
		zap.String("message_id", res.MessageID),
		zap.Int("recipients", len(res.Accepted)),
	)
	return res, nil
}
