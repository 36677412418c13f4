package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freightdesk/internal/core/apperror"
	shipments "freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/tracking/domain"
	"freightdesk/internal/features/tracking/ports"
)

var (
	// ErrTrackingNotFound is returned when no shipment has the reference.
	ErrTrackingNotFound = apperror.NotFound("tracking_not_found", "no shipment matches this reference and email")
	// ErrEmailMismatch is returned when the email is not a contact of the
	// shipment. It reads as not found so references cannot be probed.
	ErrEmailMismatch = fmt.Errorf("email does not match shipment contacts: %w", ErrTrackingNotFound)
	// ErrMissingParams is returned when reference or email is empty.
	ErrMissingParams = apperror.Validation("missing_tracking_params", "reference number and email are required")
)

// TrackingService serves the public tracking lookup.
type TrackingService struct {
	lookup ports.ShipmentLookup
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(lookup ports.ShipmentLookup) *TrackingService {
	return &TrackingService{lookup: lookup}
}

// GetTracking returns the public view of the shipment with referenceNo when
// email matches one of its contacts.
func (s *TrackingService) GetTracking(ctx context.Context, referenceNo, email string) (*domain.TrackingView, error) {
	referenceNo = strings.ToUpper(strings.TrimSpace(referenceNo))
	if referenceNo == "" || strings.TrimSpace(email) == "" {
		return nil, ErrMissingParams
	}

	sh, err := s.lookup.GetByReference(ctx, referenceNo)
	if errors.Is(err, shipments.ErrShipmentNotFound) {
		return nil, ErrTrackingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up %s: %w", referenceNo, err)
	}

	if !domain.ContactMatches(*sh, email) {
		return nil, ErrEmailMismatch
	}

	view := domain.NewTrackingView(*sh)
	return &view, nil
}
