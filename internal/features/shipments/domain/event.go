package domain

import "time"

// Event types published on the shipment stream.
const (
	EventCreated        = "shipment.created"
	EventStatusChanged  = "shipment.status_changed"
	EventPaymentChanged = "shipment.payment_changed"
	EventDocumentAdded  = "shipment.document_added"
)

// Event is published for every lifecycle change, keyed by shipment id.
type Event struct {
	Type        string    `json:"type"`
	ShipmentID  string    `json:"shipmentId"`
	ReferenceNo string    `json:"referenceNo"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	ActorID     string    `json:"actorId"`
	OccurredAt  time.Time `json:"occurredAt"`
}
