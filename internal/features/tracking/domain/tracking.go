package domain

import (
	"strings"
	"time"

	shipments "freightdesk/internal/features/shipments/domain"
)

// Milestones are the operational steps shown on the public timeline.
var Milestones = []shipments.Status{
	shipments.StatusBooked,
	shipments.StatusAtOriginYard,
	shipments.StatusLoaded,
	shipments.StatusSailed,
	shipments.StatusArrived,
	shipments.StatusCleared,
	shipments.StatusDelivered,
}

// Milestone is one step of the timeline.
type Milestone struct {
	Status  shipments.Status `json:"status"`
	Label   string           `json:"label"`
	Reached bool             `json:"reached"`
	Current bool             `json:"current"`
}

// TrackingView is the public projection of a shipment. It carries no
// customer, party or payment details.
type TrackingView struct {
	ReferenceNo     string           `json:"referenceNo"`
	ServiceType     string           `json:"serviceType"`
	Mode            string           `json:"mode"`
	OriginPort      string           `json:"originPort"`
	DestinationPort string           `json:"destinationPort"`
	Status          shipments.Status `json:"status"`
	StatusLabel     string           `json:"statusLabel"`
	Category        string           `json:"category"`
	Stage           string           `json:"stage"`
	Vessel          string           `json:"vessel,omitempty"`
	ShippingDate    *time.Time       `json:"shippingDate,omitempty"`
	ETA             *time.Time       `json:"eta,omitempty"`
	Timeline        []Milestone      `json:"timeline"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// NewTrackingView projects s for public display.
func NewTrackingView(s shipments.Shipment) TrackingView {
	v := TrackingView{
		ReferenceNo:     s.ReferenceNo,
		ServiceType:     shipments.Label(string(s.ServiceType)),
		Mode:            shipments.ModeLabel(shipments.ToUIMode(s.ServiceType, s.Mode)),
		OriginPort:      s.OriginPort,
		DestinationPort: s.DestinationPort,
		Status:          s.Status,
		StatusLabel:     shipments.Label(string(s.Status)),
		Category:        shipments.Category(s.Status),
		Stage:           shipments.Stage(s.Status),
		ShippingDate:    s.ShippingDate,
		ETA:             s.ETA,
		Timeline:        Timeline(s.Status),
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Vessel != nil && s.Vessel.Name != "" {
		v.Vessel = strings.TrimSpace(s.Vessel.Name + " " + s.Vessel.Voyage)
	}
	return v
}

// Timeline marks the milestones reached at status. Request-stage and
// cancelled shipments have no reached milestones.
func Timeline(status shipments.Status) []Milestone {
	current := -1
	for i, m := range Milestones {
		if m == status {
			current = i
		}
	}

	out := make([]Milestone, len(Milestones))
	for i, m := range Milestones {
		out[i] = Milestone{
			Status:  m,
			Label:   shipments.Label(string(m)),
			Reached: i <= current,
			Current: i == current,
		}
	}
	return out
}

// ContactMatches reports whether email belongs to the shipment's customer
// or one of its parties.
func ContactMatches(s shipments.Shipment, email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, candidate := range []string{s.Customer.Email, s.Shipper.Email, s.Consignee.Email, s.Notify.Email} {
		if candidate != "" && strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}
