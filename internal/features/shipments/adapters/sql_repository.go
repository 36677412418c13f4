package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"freightdesk/internal/core/storage"
	"freightdesk/internal/features/shipments/domain"
)

// SQLRepository stores shipments as JSON documents in the shipments table.
// The indexed columns mirror fields of the document used for lookups.
type SQLRepository struct {
	db *storage.DB
}

// NewSQLRepository creates a new SQLRepository.
func NewSQLRepository(db *storage.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectShipment = "SELECT document FROM shipments"

// Create inserts a new shipment.
func (r *SQLRepository) Create(ctx context.Context, s *domain.Shipment) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode shipment: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO shipments (id, reference_no, customer_id, service_type, status, payment_status, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.ReferenceNo, s.Customer.ID, string(s.ServiceType), string(s.Status), string(s.PaymentStatus),
		string(doc), storage.ToMillis(s.CreatedAt), storage.ToMillis(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// Get returns the shipment with the given id.
func (r *SQLRepository) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.getOne(ctx, selectShipment+" WHERE id = ?", id)
}

// GetByReference returns the shipment with the given reference number.
func (r *SQLRepository) GetByReference(ctx context.Context, referenceNo string) (*domain.Shipment, error) {
	return r.getOne(ctx, selectShipment+" WHERE reference_no = ?", referenceNo)
}

// List returns every shipment, newest first.
func (r *SQLRepository) List(ctx context.Context) ([]domain.Shipment, error) {
	return r.list(ctx, selectShipment+" ORDER BY created_at DESC")
}

// ListByCustomer returns the customer's shipments, newest first.
func (r *SQLRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Shipment, error) {
	return r.list(ctx, selectShipment+" WHERE customer_id = ? ORDER BY created_at DESC", customerID)
}

// Update replaces the stored document. Last write wins for every field
// except documents, which are append-only: the stored list is kept and
// copied back into s.
func (r *SQLRepository) Update(ctx context.Context, s *domain.Shipment) error {
	return r.modify(ctx, s.ID, func(stored *domain.Shipment) *domain.Shipment {
		s.Documents = stored.Documents
		return s
	})
}

// AppendDocument adds doc to the shipment's documents and returns the
// updated shipment.
func (r *SQLRepository) AppendDocument(ctx context.Context, id string, doc domain.Document) (*domain.Shipment, error) {
	var out *domain.Shipment
	err := r.modify(ctx, id, func(stored *domain.Shipment) *domain.Shipment {
		stored.Documents = append(stored.Documents, doc)
		if doc.UploadedAt.After(stored.UpdatedAt) {
			stored.UpdatedAt = doc.UploadedAt
		}
		out = stored
		return stored
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// modify reads the stored row and writes fn's result in one transaction.
// Postgres locks the row; sqlite runs on a single connection, so
// transactions never overlap.
func (r *SQLRepository) modify(ctx context.Context, id string, fn func(stored *domain.Shipment) *domain.Shipment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shipment update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := selectShipment + " WHERE id = ?"
	if r.db.Driver() == storage.DriverPostgres {
		query += " FOR UPDATE"
	}
	var raw string
	err = tx.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrShipmentNotFound
	}
	if err != nil {
		return fmt.Errorf("query shipment: %w", err)
	}
	stored, err := decode(raw)
	if err != nil {
		return err
	}

	s := fn(stored)
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode shipment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`
		UPDATE shipments SET status = ?, payment_status = ?, customer_id = ?, document = ?, updated_at = ?
		WHERE id = ?`),
		string(s.Status), string(s.PaymentStatus), s.Customer.ID, string(doc), storage.ToMillis(s.UpdatedAt), id,
	); err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit shipment update: %w", err)
	}
	return nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg string) (*domain.Shipment, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), arg).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query shipment: %w", err)
	}
	return decode(doc)
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]domain.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	out := []domain.Shipment{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		s, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func decode(doc string) (*domain.Shipment, error) {
	var s domain.Shipment
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, fmt.Errorf("decode shipment: %w", err)
	}
	if s.Documents == nil {
		s.Documents = []domain.Document{}
	}
	return &s, nil
}
