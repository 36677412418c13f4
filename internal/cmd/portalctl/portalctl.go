// Package portalctl is the terminal front end of the customer and admin
// portal. Each subcommand is one portal view backed by the API client.
package portalctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/logger"
	"freightdesk/internal/portal/client"
	"freightdesk/internal/portal/session"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// ErrUsage is returned for a missing or unknown command.
var ErrUsage = errors.New("usage: portalctl <command> [flags]; run 'portalctl help' for the list")

// Config holds the settings read from the environment.
type Config struct {
	APIURL      string `env:"FREIGHTDESK_API_URL" envDefault:"http://localhost:8080"`
	SessionFile string `env:"FREIGHTDESK_SESSION"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	Currency    string `env:"FREIGHTDESK_CURRENCY" envDefault:"USD"`
	Lang        string `env:"FREIGHTDESK_LANG" envDefault:"en"`
}

// ParseConfig reads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

type command struct {
	summary string
	run     func(a *App, ctx context.Context, fs *flag.FlagSet, args []string) error
}

var commands = map[string]command{
	"login":           {"sign in and store the session", (*App).login},
	"logout":          {"forget the stored session", (*App).logout},
	"whoami":          {"show the signed-in account", (*App).whoami},
	"list":            {"list shipments (admins see all, customers their own)", (*App).list},
	"show":            {"show one shipment with its timeline", (*App).show},
	"export":          {"export the filtered shipment list as CSV", (*App).export},
	"edit":            {"change shipment fields", (*App).edit},
	"set-status":      {"move a shipment to another status", (*App).setStatus},
	"approve":         {"approve the quote on your shipment", (*App).approve},
	"request-changes": {"ask for a revised quote", (*App).requestChanges},
	"upload":          {"attach a document to a shipment", (*App).upload},
	"totals":          {"price line items read from a JSON file", (*App).totals},
	"track":           {"public tracking lookup", (*App).track},
	"profile":         {"show or update your profile", (*App).profile},
	"password":        {"change your password", (*App).password},
	"users":           {"list accounts (admin)", (*App).listUsers},
}

// App runs commands against one client and session.
type App struct {
	client  *client.Client
	session *session.Session
	out     io.Writer
	in      io.Reader
	cfg     Config
}

// NewApp creates an App writing to out and reading piped input from in.
func NewApp(c *client.Client, sess *session.Session, cfg Config, in io.Reader, out io.Writer) *App {
	return &App{client: c, session: sess, cfg: cfg, in: in, out: out}
}

// Run builds the App from the environment and executes args.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := ParseConfig()
	if err != nil {
		return err
	}
	if err := logger.Init("production", cfg.LogLevel, zap.String("binary", "portalctl")); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	path := cfg.SessionFile
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
	}
	sess, err := session.New(path)
	if err != nil {
		return err
	}

	return NewApp(client.New(cfg.APIURL, sess), sess, cfg, in, out).Exec(ctx, args)
}

// Exec runs one command.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	if args[0] == "help" {
		a.help()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return ErrUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(a.out)
	return cmd.run(a, ctx, fs, args[1:])
}

func (a *App) help() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: portalctl <command> [flags]")
	fmt.Fprintln(a.out)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-16s %s\n", name, commands[name].summary)
	}
}

// Describe turns a command error into the line shown to the user. An empty
// string means nothing should be printed.
func Describe(err error) string {
	var authErr *client.AuthRequiredError
	if errors.As(err, &authErr) {
		return "Your session has expired. Run 'portalctl login' to sign in again."
	}
	if errors.Is(err, ErrUsage) || errors.Is(err, flag.ErrHelp) {
		return err.Error()
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) && !apperror.IsCanceled(err) && err != nil {
		return err.Error()
	}
	msg, _ := apperror.Display(err)
	return msg
}

func (a *App) requireLogin() error {
	if !a.session.State().Authenticated(time.Now()) {
		return &client.AuthRequiredError{
			Redirect: client.LoginPath,
			Err:      apperror.Unauthorized("not_signed_in", "not signed in"),
		}
	}
	return nil
}

func (a *App) isAdmin() bool {
	return a.session.State().User.Role == auth.RoleAdmin
}

// oneArg parses fs and returns its single positional argument.
func oneArg(fs *flag.FlagSet, args []string, name string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("%s: expected <%s>", fs.Name(), name)
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}
