package domain

import "strings"

// Filter narrows a shipment list. Empty fields match everything.
type Filter struct {
	// Query matches reference, customer, ports and parties case-insensitively.
	Query         string        `query:"q"`
	Status        Status        `query:"status"`
	PaymentStatus PaymentStatus `query:"paymentStatus"`
	ServiceType   ServiceType   `query:"serviceType"`
	// Mode accepts either vocabulary, e.g. "fcl" or "Container".
	Mode string `query:"mode"`
}

// Matches reports whether s passes the filter.
func (f Filter) Matches(s Shipment) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && s.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.ServiceType != "" && s.ServiceType != f.ServiceType {
		return false
	}
	if f.Mode != "" && !strings.EqualFold(s.Mode, f.Mode) && ToUIMode(s.ServiceType, s.Mode) != strings.ToLower(f.Mode) {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{
		s.ReferenceNo,
		s.Customer.Name,
		s.Customer.Email,
		s.OriginPort,
		s.DestinationPort,
		s.Shipper.Name,
		s.Consignee.Name,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Apply returns the shipments that match, keeping their order.
func (f Filter) Apply(list []Shipment) []Shipment {
	out := make([]Shipment, 0, len(list))
	for _, s := range list {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
