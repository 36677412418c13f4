package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"freightdesk/internal/core/storage"
	"freightdesk/internal/features/users/domain"
)

// SQLRepository stores accounts in the users table. The profile is a JSON
// document; email, role, status and the password hash have their own columns.
type SQLRepository struct {
	db *storage.DB
}

// NewSQLRepository creates a new SQLRepository.
func NewSQLRepository(db *storage.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectUser = "SELECT password_hash, document FROM users"

// Create inserts u. A duplicate email returns domain.ErrEmailTaken.
func (r *SQLRepository) Create(ctx context.Context, u *domain.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (id, email, role, status, password_hash, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, string(u.Role), string(u.Status), u.PasswordHash,
		string(doc), storage.ToMillis(u.CreatedAt), storage.ToMillis(u.UpdatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get returns the account with the given id.
func (r *SQLRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+" WHERE id = ?", id)
}

// GetByEmail returns the account with the given normalized email.
func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+" WHERE email = ?", email)
}

// List returns every account, newest first.
func (r *SQLRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Update replaces the stored account.
func (r *SQLRepository) Update(ctx context.Context, u *domain.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET role = ?, status = ?, password_hash = ?, document = ?, updated_at = ?
		WHERE id = ?`),
		string(u.Role), string(u.Status), u.PasswordHash, string(doc), storage.ToMillis(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) getOne(ctx context.Context, query, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(query), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func scanUser(row scanner) (*domain.User, error) {
	var hash, doc string
	if err := row.Scan(&hash, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var u domain.User
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u.PasswordHash = hash
	return &u, nil
}
