package portalctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"freightdesk/internal/features/shipments/domain"
	tracking "freightdesk/internal/features/tracking/domain"
)

const dateLayout = "2006-01-02"

func filterFlags(fs *flag.FlagSet) *domain.Filter {
	var f domain.Filter
	fs.StringVar(&f.Query, "q", "", "search reference, customer, ports and parties")
	fs.Func("status", "status, e.g. sailed", func(v string) error { f.Status = domain.Status(v); return nil })
	fs.Func("payment", "payment status, e.g. unpaid", func(v string) error { f.PaymentStatus = domain.PaymentStatus(v); return nil })
	fs.Func("service", "sea_freight or air_freight", func(v string) error { f.ServiceType = domain.ServiceType(v); return nil })
	fs.StringVar(&f.Mode, "mode", "", "mode in either vocabulary, e.g. fcl or Container")
	return &f
}

// shipments returns the list for the current view. Customers only see their
// own shipments, so their filter is applied locally.
func (a *App) shipments(ctx context.Context, f domain.Filter) ([]domain.Shipment, error) {
	if a.isAdmin() {
		return a.client.ListShipments(ctx, f)
	}
	list, err := a.client.MyShipments(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(list), nil
}

func (a *App) list(ctx context.Context, fs *flag.FlagSet, args []string) error {
	f := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	list, err := a.shipments(ctx, *f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No shipments match.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tCUSTOMER\tROUTE\tMODE\tSTATUS\tPAYMENT\tCREATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s → %s\t%s\t%s\t%s\t%s\n",
			s.ID, s.ReferenceNo, s.Customer.Name, s.OriginPort, s.DestinationPort,
			domain.ModeLabel(domain.ToUIMode(s.ServiceType, s.Mode)),
			domain.Label(string(s.Status)), domain.Label(string(s.PaymentStatus)),
			s.CreatedAt.Format(dateLayout))
	}
	return tw.Flush()
}

func (a *App) show(ctx context.Context, fs *flag.FlagSet, args []string) error {
	id, err := oneArg(fs, args, "id")
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	s, err := a.client.GetShipment(ctx, id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s\t%s\n", k, v)
		}
	}
	row("Reference", s.ReferenceNo)
	row("Service", domain.Label(string(s.ServiceType)))
	row("Mode", domain.ModeLabel(domain.ToUIMode(s.ServiceType, s.Mode)))
	row("Status", domain.Label(string(s.Status)))
	row("Payment", domain.Label(string(s.PaymentStatus)))
	row("Customer", s.Customer.Name)
	row("Route", s.OriginPort+" → "+s.DestinationPort)
	row("Shipper", s.Shipper.Name)
	row("Consignee", s.Consignee.Name)
	if s.Vessel != nil {
		row("Vessel", strings.TrimSpace(s.Vessel.Name+" "+s.Vessel.Voyage))
	}
	row("Cargo", s.Cargo.Description)
	if s.ShippingDate != nil {
		row("Shipping date", s.ShippingDate.Format(dateLayout))
	}
	if s.ETA != nil {
		row("ETA", s.ETA.Format(dateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(a.out)
	for _, m := range tracking.Timeline(s.Status) {
		mark := "[ ]"
		switch {
		case m.Current:
			mark = "[>]"
		case m.Reached:
			mark = "[x]"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, m.Label)
	}

	if len(s.Documents) > 0 {
		fmt.Fprintln(a.out, "\nDocuments:")
		for _, d := range s.Documents {
			fmt.Fprintf(a.out, "  %s  %s\n", d.Name, d.FileURL)
		}
	}
	return nil
}

func (a *App) export(ctx context.Context, fs *flag.FlagSet, args []string) error {
	f := filterFlags(fs)
	outPath := fs.String("out", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	if *outPath == "" {
		list, err := a.shipments(ctx, *f)
		if err != nil {
			return err
		}
		return domain.WriteCSV(a.out, list)
	}

	file, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	list, err := a.shipments(ctx, *f)
	if err == nil {
		err = domain.WriteCSV(file, list)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(*outPath)
		return err
	}
	fmt.Fprintf(a.out, "Exported %d shipments to %s\n", len(list), *outPath)
	return nil
}

func (a *App) edit(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var form domain.Form
	fs.StringVar(&form.Mode, "mode", "", "UI mode: roro, fcl, lcl, air_general, air_docs")
	fs.StringVar(&form.OriginPort, "origin", "", "origin port")
	fs.StringVar(&form.DestinationPort, "destination", "", "destination port")
	fs.StringVar(&form.VesselName, "vessel", "", "vessel name")
	fs.StringVar(&form.Voyage, "voyage", "", "voyage number")
	fs.StringVar(&form.CargoDescription, "cargo", "", "cargo description")
	fs.StringVar(&form.CargoWeight, "weight", "", "cargo weight in kg")
	fs.StringVar(&form.ShippingDate, "shipping-date", "", "shipping date, YYYY-MM-DD")
	fs.StringVar(&form.ETA, "eta", "", "estimated arrival, YYYY-MM-DD")
	fs.Func("payment", "payment status", func(v string) error { form.PaymentStatus = domain.PaymentStatus(v); return nil })
	fs.StringVar(&form.Shipper.Name, "shipper", "", "shipper name")
	fs.StringVar(&form.Consignee.Name, "consignee", "", "consignee name")

	id, err := oneArg(fs, args, "id")
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	prior, err := a.client.GetShipment(ctx, id)
	if err != nil {
		return err
	}
	s, err := a.client.SaveForm(ctx, prior, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", s.ReferenceNo)
	return nil
}

func (a *App) setStatus(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("set-status: expected <id> <status>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	prior, err := a.client.GetShipment(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	to := domain.Status(strings.TrimSpace(fs.Arg(1)))
	if err := domain.CheckTransition(prior.Status, to, a.isAdmin()); err != nil {
		return err
	}

	s, err := a.client.SetStatus(ctx, prior, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", s.ReferenceNo, domain.Label(string(s.Status)))
	return nil
}

func (a *App) approve(ctx context.Context, fs *flag.FlagSet, args []string) error {
	id, err := oneArg(fs, args, "id")
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	prior, err := a.client.GetShipment(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMarkApproved(prior.Status, a.client.Busy()) {
		return fmt.Errorf("%s has no quote to approve (status %s)", prior.ReferenceNo, domain.Label(string(prior.Status)))
	}

	s, err := a.client.Approve(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Quote approved for %s\n", s.ReferenceNo)
	return nil
}

func (a *App) requestChanges(ctx context.Context, fs *flag.FlagSet, args []string) error {
	id, err := oneArg(fs, args, "id")
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	s, err := a.client.RequestChanges(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Changes requested for %s\n", s.ReferenceNo)
	return nil
}

func (a *App) upload(ctx context.Context, fs *flag.FlagSet, args []string) error {
	name := fs.String("name", "", "display name, defaults to the file name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("upload: expected <id> <file>")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	path := fs.Arg(1)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	display := *name
	if display == "" {
		display = filepath.Base(path)
	}

	doc, err := a.client.UploadDocument(ctx, fs.Arg(0), display, path, f, func(pct int) {
		fmt.Fprintf(a.out, "\rUploading %3d%%", pct)
	})
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s: %s\n", doc.Name, doc.FileURL)
	return nil
}

