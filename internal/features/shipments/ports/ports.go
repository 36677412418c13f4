package ports

import (
	"context"
	"io"

	"freightdesk/internal/core/auth"
	"freightdesk/internal/features/shipments/domain"
)

// ShipmentService defines the primary port for shipment operations.
type ShipmentService interface {
	List(ctx context.Context, actor auth.Principal, filter domain.Filter) ([]domain.Shipment, error)
	ListMine(ctx context.Context, actor auth.Principal) ([]domain.Shipment, error)
	Get(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error)
	Create(ctx context.Context, actor auth.Principal, in domain.NewShipmentInput) (*domain.Shipment, error)
	Update(ctx context.Context, actor auth.Principal, id string, patch domain.Patch) (*domain.Shipment, error)
	Approve(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error)
	RequestChanges(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error)
	AddDocument(ctx context.Context, actor auth.Principal, id string, upload Upload) (*domain.Document, error)
}

// Upload is a document received from the client.
type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Body        io.Reader
}

// ShipmentRepository defines the secondary port for shipment storage.
// Get, GetByReference, Update and AppendDocument return
// domain.ErrShipmentNotFound when missing. Documents are append-only: Update
// keeps the stored list, and only AppendDocument adds to it.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	Get(ctx context.Context, id string) (*domain.Shipment, error)
	GetByReference(ctx context.Context, referenceNo string) (*domain.Shipment, error)
	List(ctx context.Context) ([]domain.Shipment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Shipment, error)
	Update(ctx context.Context, s *domain.Shipment) error
	AppendDocument(ctx context.Context, id string, doc domain.Document) (*domain.Shipment, error)
}

// EventPublisher emits lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// StatusNotifier tells the customer their shipment moved.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, s domain.Shipment, from, to domain.Status) error
}

// FileStore persists uploaded documents and returns their public URL.
type FileStore interface {
	Save(ctx context.Context, key string, body io.Reader) (string, error)
}
