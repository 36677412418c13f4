// Package domain holds the mail message, result and error types.
package domain

import (
	"fmt"
	"strings"

	"freightdesk/internal/core/apperror"
)

// Transport error codes.
const (
	CodeNotConfigured     = "SMTP_NOT_CONFIGURED"
	CodeRecipientRejected = "SMTP_RECIPIENT_REJECTED"
)

// ErrInvalidMessage is returned for a message with no recipient or content.
var ErrInvalidMessage = apperror.Validation("invalid_message", "a message needs a recipient, a subject and a body")

// Message is one outgoing mail.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	From    string   `json:"from,omitempty"`
}

// Validate checks that the message can be sent.
func (m Message) Validate() error {
	if len(m.Recipients()) == 0 || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	if m.HTML == "" && m.Text == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Recipients returns the trimmed, non-empty addresses in To.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, to := range m.To {
		if to = strings.TrimSpace(to); to != "" {
			out = append(out, to)
		}
	}
	return out
}

// Result describes a dispatched message.
type Result struct {
	OK        bool     `json:"ok"`
	Mode      string   `json:"mode"`
	MessageID string   `json:"messageId"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected,omitempty"`
	Response  string   `json:"response"`
}

// MailError is a typed transport failure.
type MailError struct {
	Code     string
	Detail   string
	Rejected []string
}

func (e *MailError) Error() string {
	if len(e.Rejected) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Detail, strings.Join(e.Rejected, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is matches another MailError with the same code.
func (e *MailError) Is(target error) bool {
	t, ok := target.(*MailError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotConfigured     = &MailError{Code: CodeNotConfigured}
	ErrRecipientRejected = &MailError{Code: CodeRecipientRejected}
)

// NotConfigured builds a configuration error.
func NotConfigured(detail string) *MailError {
	return &MailError{Code: CodeNotConfigured, Detail: detail}
}
