package adapters

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"freightdesk/internal/features/notifications/domain"
)

// SMTPTransport delivers mail to an SMTP relay. It upgrades to TLS when the
// server offers STARTTLS and authenticates when credentials are set.
type SMTPTransport struct {
	host     string
	port     int
	user     string
	password string
	timeout  time.Duration
	tls      *tls.Config
	now      func() time.Time
}

// NewSMTPTransport builds the transport. SMTP_HOST is required.
func NewSMTPTransport(cfg domain.MailConfig) (*SMTPTransport, error) {
	if cfg.SMTPHost == "" {
		return nil, domain.NotConfigured("SMTP_HOST is not set")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPTransport{
		host:     cfg.SMTPHost,
		port:     port,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		timeout:  timeout,
		tls:      &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12},
		now:      time.Now,
	}, nil
}

// Name returns "smtp".
func (t *SMTPTransport) Name() string { return domain.TransportSMTP }

// Deliver runs one SMTP transaction. Recipients the server refuses are
// returned in Result.Rejected; the message still goes to the others.
func (t *SMTPTransport) Deliver(ctx context.Context, from string, msg domain.Message) (domain.Result, error) {
	if from == "" {
		return domain.Result{}, domain.NotConfigured("no sender address: set MAIL_FROM, SMTP_FROM or SMTP_USER")
	}

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return domain.Result{}, fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return domain.Result{}, fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(t.tls); err != nil {
			return domain.Result{}, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if t.user != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.user, t.password, t.host)); err != nil {
				return domain.Result{}, fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	envelope := from
	if a, err := mail.ParseAddress(from); err == nil {
		envelope = a.Address
	}
	if err := c.Mail(envelope); err != nil {
		return domain.Result{}, fmt.Errorf("smtp mail from: %w", err)
	}

	res := domain.Result{Mode: t.Name(), MessageID: newMessageID(envelope), Accepted: []string{}}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			var tpErr *textproto.Error
			if !errors.As(err, &tpErr) {
				return domain.Result{}, fmt.Errorf("smtp rcpt to: %w", err)
			}
			res.Rejected = append(res.Rejected, rcpt)
			continue
		}
		res.Accepted = append(res.Accepted, rcpt)
	}
	if len(res.Accepted) == 0 {
		_ = c.Reset()
		_ = c.Quit()
		res.Response = "no recipients accepted"
		return res, nil
	}

	body, err := buildMessage(from, res.MessageID, msg, t.now().UTC())
	if err != nil {
		return domain.Result{}, fmt.Errorf("build message: %w", err)
	}
	res.Response, err = sendData(c, body)
	if err != nil {
		return domain.Result{}, err
	}
	_ = c.Quit()

	res.OK = true
	return res, nil
}

// sendData runs the DATA command on the raw connection so the final server
// reply can be reported back.
func sendData(c *smtp.Client, body []byte) (string, error) {
	id, err := c.Text.Cmd("DATA")
	if err != nil {
		return "", fmt.Errorf("smtp data: %w", err)
	}
	c.Text.StartResponse(id)
	_, _, err = c.Text.ReadResponse(354)
	c.Text.EndResponse(id)
	if err != nil {
		return "", fmt.Errorf("smtp data: %w", err)
	}

	w := c.Text.DotWriter()
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp end body: %w", err)
	}

	code, reply, err := c.Text.ReadResponse(250)
	if err != nil {
		return "", fmt.Errorf("smtp queue message: %w", err)
	}
	return fmt.Sprintf("%d %s", code, reply), nil
}
