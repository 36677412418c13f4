package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/logger"
	"freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/shipments/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMissingFile is returned when an upload has no content.
var ErrMissingFile = apperror.Validation("missing_file", "a file is required")

// ShipmentServiceImpl implements ports.ShipmentService.
type ShipmentServiceImpl struct {
	repo     ports.ShipmentRepository
	events   ports.EventPublisher
	notifier ports.StatusNotifier
	files    ports.FileStore
	now      func() time.Time
}

// NewShipmentService creates a new ShipmentServiceImpl. notifier may be nil.
func NewShipmentService(repo ports.ShipmentRepository, events ports.EventPublisher, notifier ports.StatusNotifier, files ports.FileStore) *ShipmentServiceImpl {
	return &ShipmentServiceImpl{
		repo:     repo,
		events:   events,
		notifier: notifier,
		files:    files,
		now:      time.Now,
	}
}

// List returns every shipment matching filter for admins, and the caller's
// own matching shipments for everyone else.
func (s *ShipmentServiceImpl) List(ctx context.Context, actor auth.Principal, filter domain.Filter) ([]domain.Shipment, error) {
	var (
		list []domain.Shipment
		err  error
	)
	if actor.IsAdmin() {
		list, err = s.repo.List(ctx)
	} else {
		list, err = s.repo.ListByCustomer(ctx, actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to list shipments: %w", err)
	}
	return filter.Apply(list), nil
}

// ListMine returns the caller's own shipments.
func (s *ShipmentServiceImpl) ListMine(ctx context.Context, actor auth.Principal) ([]domain.Shipment, error) {
	list, err := s.repo.ListByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list own shipments: %w", err)
	}
	return list, nil
}

// Get returns a shipment the caller may see. Other customers' shipments
// read as not found.
func (s *ShipmentServiceImpl) Get(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error) {
	sh, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !sh.OwnedBy(actor.UserID) {
		return nil, domain.ErrShipmentNotFound
	}
	return sh, nil
}

// Create opens a shipment. Admins book on behalf of the customer named in
// the input; anyone else books for themselves as a new request.
func (s *ShipmentServiceImpl) Create(ctx context.Context, actor auth.Principal, in domain.NewShipmentInput) (*domain.Shipment, error) {
	if !actor.IsAdmin() {
		in.Customer = domain.CustomerRef{ID: actor.UserID, Name: actor.Name, Email: actor.Email}
		in.Status = domain.StatusRequestReceived
		in.PaymentStatus = domain.PaymentUnpaid
	}

	sh, err := domain.NewShipment(in, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("service: failed to create shipment: %w", err)
	}

	s.publish(ctx, sh, domain.EventCreated, "", string(sh.Status), actor)
	return sh, nil
}

// Update applies an update payload. Customers' patches are cut down to the
// fields they may edit.
func (s *ShipmentServiceImpl) Update(ctx context.Context, actor auth.Principal, id string, patch domain.Patch) (*domain.Shipment, error) {
	if !actor.IsAdmin() {
		patch = patch.CustomerEditable()
	}
	return s.apply(ctx, actor, id, patch)
}

// Approve accepts the quote on the caller's shipment.
func (s *ShipmentServiceImpl) Approve(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error) {
	status := domain.StatusCustomerApproved
	return s.answerQuote(ctx, actor, id, status)
}

// RequestChanges sends the quote back to the forwarder.
func (s *ShipmentServiceImpl) RequestChanges(ctx context.Context, actor auth.Principal, id string) (*domain.Shipment, error) {
	status := domain.StatusCustomerRequestedChanges
	return s.answerQuote(ctx, actor, id, status)
}

func (s *ShipmentServiceImpl) answerQuote(ctx context.Context, actor auth.Principal, id string, status domain.Status) (*domain.Shipment, error) {
	// Quote answers belong to the owner, even for admins acting in the portal.
	owner := actor
	owner.Role = auth.RoleCustomer
	return s.apply(ctx, owner, id, domain.Patch{Status: &status})
}

func (s *ShipmentServiceImpl) apply(ctx context.Context, actor auth.Principal, id string, patch domain.Patch) (*domain.Shipment, error) {
	sh, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	change, err := sh.Apply(patch, actor.IsAdmin(), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sh); err != nil {
		return nil, fmt.Errorf("service: failed to update shipment: %w", err)
	}

	if change.StatusChanged {
		s.publish(ctx, sh, domain.EventStatusChanged, string(change.FromStatus), string(change.ToStatus), actor)
		s.notify(ctx, *sh, change.FromStatus, change.ToStatus)
	}
	if change.PaymentChanged {
		s.publish(ctx, sh, domain.EventPaymentChanged, string(change.FromPayment), string(change.ToPayment), actor)
	}

	return sh, nil
}

// AddDocument stores the upload and appends it to the shipment's documents.
func (s *ShipmentServiceImpl) AddDocument(ctx context.Context, actor auth.Principal, id string, upload ports.Upload) (*domain.Document, error) {
	if upload.Body == nil {
		return nil, ErrMissingFile
	}

	sh, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(upload.Name)
	if name == "" {
		name = upload.Filename
	}

	key := path.Join("shipments", sh.ID, uuid.NewString()+safeExt(upload.Filename))
	url, err := s.files.Save(ctx, key, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("service: failed to store document: %w", err)
	}

	doc := domain.Document{Name: name, FileURL: url, UploadedAt: s.now().UTC()}
	sh, err = s.repo.AppendDocument(ctx, sh.ID, doc)
	if err != nil {
		return nil, fmt.Errorf("service: failed to attach document: %w", err)
	}

	s.publish(ctx, sh, domain.EventDocumentAdded, "", doc.Name, actor)
	return &doc, nil
}

// publish never fails the operation; the store is the source of truth.
func (s *ShipmentServiceImpl) publish(ctx context.Context, sh *domain.Shipment, eventType, from, to string, actor auth.Principal) {
	if s.events == nil {
		return
	}
	ev := domain.Event{
		Type:        eventType,
		ShipmentID:  sh.ID,
		ReferenceNo: sh.ReferenceNo,
		From:        from,
		To:          to,
		ActorID:     actor.UserID,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.events.Publish(ctx, sh.ID, ev); err != nil {
		logger.Named("shipments").Warn("Failed to publish shipment event",
			zap.String("type", eventType),
			zap.String("shipment_id", sh.ID),
			zap.Error(err),
		)
	}
}

func (s *ShipmentServiceImpl) notify(ctx context.Context, sh domain.Shipment, from, to domain.Status) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyStatusChange(ctx, sh, from, to); err != nil {
		logger.Named("shipments").Warn("Failed to send status notice",
			zap.String("shipment_id", sh.ID),
			zap.String("status", string(to)),
			zap.Error(err),
		)
	}
}

func safeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
