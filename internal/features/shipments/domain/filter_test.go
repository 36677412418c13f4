package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleList() []Shipment {
	return []Shipment{
		{ReferenceNo: "FF-1", ServiceType: ServiceSea, Mode: ModeRoRo, Status: StatusBooked, PaymentStatus: PaymentPaid,
			OriginPort: "Southampton", DestinationPort: "Lagos", Customer: CustomerRef{Name: "Ada Obi"}},
		{ReferenceNo: "FF-2", ServiceType: ServiceSea, Mode: ModeContainer, Status: StatusQuoted, PaymentStatus: PaymentUnpaid,
			OriginPort: "Felixstowe", DestinationPort: "Tema", Customer: CustomerRef{Name: "Kwame Mensah"}},
		{ReferenceNo: "FF-3", ServiceType: ServiceAir, Mode: ModeDocuments, Status: StatusQuoted, PaymentStatus: PaymentOnAccount,
			OriginPort: "LHR", DestinationPort: "ACC", Customer: CustomerRef{Email: "legal@firm.test"}},
	}
}

func refs(list []Shipment) []string {
	out := []string{}
	for _, s := range list {
		out = append(out, s.ReferenceNo)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	list := sampleList()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty", Filter{}, []string{"FF-1", "FF-2", "FF-3"}},
		{"status", Filter{Status: StatusQuoted}, []string{"FF-2", "FF-3"}},
		{"payment", Filter{PaymentStatus: PaymentPaid}, []string{"FF-1"}},
		{"service", Filter{ServiceType: ServiceAir}, []string{"FF-3"}},
		{"ui mode", Filter{Mode: "fcl"}, []string{"FF-2"}},
		{"backend mode", Filter{Mode: "roro"}, []string{"FF-1"}},
		{"query customer", Filter{Query: "mensah"}, []string{"FF-2"}},
		{"query port", Filter{Query: "lagos"}, []string{"FF-1"}},
		{"query email", Filter{Query: "FIRM.test"}, []string{"FF-3"}},
		{"combined", Filter{Status: StatusQuoted, Query: "tema"}, []string{"FF-2"}},
		{"none", Filter{Query: "rotterdam"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refs(tt.filter.Apply(list)))
		})
	}
}
