package domain

import (
	"encoding/csv"
	"io"
)

// ExportHeader is the fixed header row of the shipment CSV export.
var ExportHeader = []string{"Order Ref", "Customer", "Origin", "Destination", "Mode", "Payment Status", "Status", "Created"}

// WriteCSV writes the shipments as CSV. Fields containing a comma or a
// quote are wrapped in quotes with inner quotes doubled.
func WriteCSV(w io.Writer, shipments []Shipment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}

	for _, s := range shipments {
		customer := s.Customer.Name
		if customer == "" {
			customer = s.Customer.Email
		}
		created := ""
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.UTC().Format("2006-01-02")
		}

		if err := cw.Write([]string{
			s.ReferenceNo,
			customer,
			s.OriginPort,
			s.DestinationPort,
			ModeLabel(ToUIMode(s.ServiceType, s.Mode)),
			Label(string(s.PaymentStatus)),
			Label(string(s.Status)),
			created,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
