package ports

import (
	"context"

	shipments "freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/tracking/domain"
)

// ShipmentLookup finds a shipment by its public reference number. It returns
// shipments' ErrShipmentNotFound when there is none.
type ShipmentLookup interface {
	GetByReference(ctx context.Context, referenceNo string) (*shipments.Shipment, error)
}

// TrackingService defines the public tracking lookup.
type TrackingService interface {
	GetTracking(ctx context.Context, referenceNo, email string) (*domain.TrackingView, error)
}
