package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transport names.
const (
	TransportSMTP    = "smtp"
	TransportConsole = "console"
)

// MailConfig holds the mail transport settings.
type MailConfig struct {
	Transport    string        `env:"MAIL_TRANSPORT" envDefault:"console"`
	From         string        `env:"MAIL_FROM"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
}

// LoadMailConfig reads the mail settings from the process environment.
func LoadMailConfig() (MailConfig, error) {
	return parseMailConfig(env.Options{})
}

// ParseMailConfig reads the mail settings from vars instead of the process
// environment.
func ParseMailConfig(vars map[string]string) (MailConfig, error) {
	return parseMailConfig(env.Options{Environment: vars})
}

func parseMailConfig(opts env.Options) (MailConfig, error) {
	var cfg MailConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return MailConfig{}, fmt.Errorf("parse mail config: %w", err)
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch cfg.Transport {
	case TransportSMTP, TransportConsole:
	default:
		return MailConfig{}, fmt.Errorf("unsupported MAIL_TRANSPORT %q", cfg.Transport)
	}
	return cfg, nil
}

// DefaultFrom resolves the configured sender: MAIL_FROM, then SMTP_FROM,
// then SMTP_USER.
func (c MailConfig) DefaultFrom() string {
	for _, v := range []string{c.From, c.SMTPFrom, c.SMTPUser} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ResolveFrom picks the message's own sender when set, else DefaultFrom.
func (c MailConfig) ResolveFrom(m Message) string {
	if from := strings.TrimSpace(m.From); from != "" {
		return from
	}
	return c.DefaultFrom()
}
