package portalctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	billing "freightdesk/internal/features/billing/domain"
	shipments "freightdesk/internal/features/shipments/domain"
)

func (a *App) totals(ctx context.Context, fs *flag.FlagSet, args []string) error {
	file := fs.String("file", "-", "JSON array of line items, - for stdin")
	currency := fs.String("currency", a.cfg.Currency, "ISO 4217 currency code")
	lang := fs.String("lang", a.cfg.Lang, "BCP 47 language tag for formatting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	var r io.Reader = a.in
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("open items: %w", err)
		}
		defer f.Close()
		r = f
	}
	var items []billing.LineItemInput
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}
	if len(items) == 0 {
		return errors.New("totals: no line items")
	}

	q, err := a.client.Totals(ctx, items, *currency, *lang)
	if err != nil {
		return err
	}

	money := func(v float64, formatted string) string {
		if formatted != "" {
			return formatted
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	var sub, tax, total string
	if q.Formatted != nil {
		sub, tax, total = q.Formatted.Subtotal, q.Formatted.TaxTotal, q.Formatted.Total
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DESCRIPTION\tQTY\tUNIT\tAMOUNT\tTAX\t")
	for _, l := range q.Lines {
		fmt.Fprintf(tw, "%s\t%g\t%.2f\t%.2f\t%.2f\t\n", l.Description, l.Quantity, l.UnitPrice, l.Amount, l.Tax)
	}
	fmt.Fprintf(tw, "Subtotal\t\t\t%s\t\t\n", money(q.Subtotal, sub))
	fmt.Fprintf(tw, "Tax\t\t\t%s\t\t\n", money(q.TaxTotal, tax))
	fmt.Fprintf(tw, "Total\t\t\t%s\t\t\n", money(q.Total, total))
	return tw.Flush()
}

func (a *App) track(ctx context.Context, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "an email on the shipment")
	ref, err := oneArg(fs, args, "reference")
	if err != nil {
		return err
	}
	if *email == "" {
		return errors.New("track: --email is required")
	}

	v, err := a.client.Track(ctx, ref, *email)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s  %s %s  %s → %s\n", v.ReferenceNo, v.ServiceType, v.Mode, v.OriginPort, v.DestinationPort)
	fmt.Fprintf(a.out, "Status: %s\n", v.StatusLabel)
	if v.Vessel != "" {
		fmt.Fprintf(a.out, "Vessel: %s\n", v.Vessel)
	}
	if v.ETA != nil {
		fmt.Fprintf(a.out, "ETA: %s\n", v.ETA.Format(dateLayout))
	}
	for _, m := range v.Timeline {
		mark := "[ ]"
		if m.Reached {
			mark = "[x]"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, m.Label)
	}
	if v.Status == shipments.StatusCancelled {
		fmt.Fprintln(a.out, "This shipment was cancelled.")
	}
	return nil
}
