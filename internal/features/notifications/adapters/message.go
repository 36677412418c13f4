package adapters

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"freightdesk/internal/features/notifications/domain"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// newMessageID returns an RFC 5322 Message-ID on the sender's domain.
func newMessageID(from string) string {
	host := "freightdesk.local"
	if _, domainPart, ok := strings.Cut(from, "@"); ok && domainPart != "" {
		host = strings.Trim(domainPart, "> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}

// buildMessage renders msg as a complete RFC 5322 message. Text and HTML
// bodies become a multipart/alternative message.
func buildMessage(from, messageID string, msg domain.Message, now time.Time) ([]byte, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(now)
	m.SetMessageIDWithValue(strings.Trim(messageID, "<>"))

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
