// Package mailer parses the mailer command line and runs its subcommands:
// a one-shot send and a queue worker.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"freightdesk/internal/core/logger"
	"freightdesk/internal/core/queue"
	"freightdesk/internal/features/notifications/adapters"
	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"
	"freightdesk/internal/features/notifications/service"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// Usage is printed for unknown subcommands.
const Usage = `usage: mailer <command> [flags]

commands:
  send    send one message (--to, --subject, --text and/or --html)
  worker  consume queued mail jobs until interrupted`

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New(Usage)

// Config holds the settings shared by the subcommands.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	MailQueue   string `env:"MAIL_QUEUE" envDefault:"mail-dispatch"`
}

// SendConfig is the parsed send subcommand.
type SendConfig struct {
	Message domain.Message
	// HTMLFile, when set, is read into Message.HTML.
	HTMLFile string
}

// ParseConfig reads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseSend parses the send flags.
func ParseSend(fs *flag.FlagSet, args []string) (SendConfig, error) {
	var (
		cfg SendConfig
		to  string
	)
	fs.StringVar(&to, "to", "", "comma separated recipients")
	fs.StringVar(&cfg.Message.Subject, "subject", "", "subject line")
	fs.StringVar(&cfg.Message.Text, "text", "", "plain text body")
	fs.StringVar(&cfg.Message.HTML, "html", "", "HTML body")
	fs.StringVar(&cfg.HTMLFile, "html-file", "", "read the HTML body from a file")
	fs.StringVar(&cfg.Message.From, "from", "", "sender, overrides MAIL_FROM")
	if err := fs.Parse(args); err != nil {
		return SendConfig{}, err
	}
	if fs.NArg() > 0 {
		return SendConfig{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	cfg.Message.To = strings.Split(to, ",")
	return cfg, nil
}

// Run dispatches args[0] to its subcommand.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cfg, err := ParseConfig()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel, zap.String("binary", "mailer")); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	switch args[0] {
	case "send":
		sc, err := ParseSend(flag.NewFlagSet("send", flag.ContinueOnError), args[1:])
		if err != nil {
			return err
		}
		sender, err := directSender()
		if err != nil {
			return err
		}
		return Send(ctx, sender, sc, stdout)
	case "worker":
		return Worker(ctx, cfg)
	default:
		return ErrUsage
	}
}

// Send delivers one message and writes the result as JSON to out. A
// partially rejected send still prints the result before failing.
func Send(ctx context.Context, sender ports.Sender, sc SendConfig, out io.Writer) error {
	msg := sc.Message
	if sc.HTMLFile != "" {
		b, err := os.ReadFile(sc.HTMLFile)
		if err != nil {
			return fmt.Errorf("read html file: %w", err)
		}
		msg.HTML = string(b)
	}

	res, err := sender.Send(ctx, msg)
	if res.Mode != "" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
	}
	return err
}

// Worker consumes cfg.MailQueue and sends every job through the configured
// transport until ctx is done.
func Worker(ctx context.Context, cfg Config) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("worker needs RABBITMQ_URL")
	}

	sender, err := directSender()
	if err != nil {
		return err
	}

	q, err := queue.Dial(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer q.Close()
	if err := q.Declare(cfg.MailQueue); err != nil {
		return err
	}

	logger.Named("mailer").Info("Worker started", zap.String("queue", cfg.MailQueue))
	err = q.Consume(ctx, cfg.MailQueue, service.NewWorker(sender).Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func directSender() (ports.Sender, error) {
	mailCfg, err := domain.LoadMailConfig()
	if err != nil {
		return nil, err
	}
	transport, err := adapters.NewTransport(mailCfg)
	if err != nil {
		return nil, err
	}
	return service.NewDispatcher(transport, mailCfg), nil
}
