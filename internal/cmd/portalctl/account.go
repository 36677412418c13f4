package portalctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	users "freightdesk/internal/features/users/domain"
)

func (a *App) login(ctx context.Context, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, defaults to $FREIGHTDESK_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("FREIGHTDESK_PASSWORD")
	}
	if *email == "" || *password == "" {
		return errors.New("login: --email and --password are required")
	}

	st, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s) until %s\n", st.User.Email, st.User.Role, st.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) logout(_ context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.client.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) whoami(_ context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	st := a.session.State()
	if !st.Authenticated(time.Now()) {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", st.User.Name, st.User.Email, st.User.Role)
	return nil
}

func (a *App) profile(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var update users.ProfileUpdate
	optional := func(dst **string) func(string) error {
		return func(v string) error { *dst = &v; return nil }
	}
	fs.Func("name", "new display name", optional(&update.Name))
	fs.Func("phone", "new phone", optional(&update.Phone))
	fs.Func("company", "new company", optional(&update.Company))
	fs.Func("address", "new address", optional(&update.Address))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	var (
		u   *users.User
		err error
	)
	if update.Name == nil && update.Phone == nil && update.Company == nil && update.Address == nil {
		u, err = a.client.Me(ctx)
	} else {
		u, err = a.client.UpdateMe(ctx, update)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\nEmail\t%s\nPhone\t%s\nCompany\t%s\nAddress\t%s\nRole\t%s\n",
		u.Name, u.Email, u.Phone, u.Company, u.Address, u.Role)
	return tw.Flush()
}

func (a *App) password(ctx context.Context, fs *flag.FlagSet, args []string) error {
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *current == "" || *next == "" {
		return errors.New("password: --current and --new are required")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := users.CheckPassword(*next); err != nil {
		return err
	}

	if err := a.client.ChangePassword(ctx, *current, *next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed.")
	return nil
}

func (a *App) listUsers(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var f users.Filter
	fs.StringVar(&f.Query, "q", "", "search name, email, company and phone")
	fs.Func("role", "role", func(v string) error { f.Role = users.Role(v); return nil })
	fs.Func("status", "account status", func(v string) error { f.Status = users.Status(v); return nil })
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	list, err := a.client.ListUsers(ctx, f)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCOMPANY\tROLE\tSTATUS")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Company, u.Role, u.Status)
	}
	return tw.Flush()
}
