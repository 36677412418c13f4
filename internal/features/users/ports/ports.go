package ports

import (
	"context"
	"time"

	"freightdesk/internal/core/auth"
	"freightdesk/internal/features/users/domain"
)

// Session is the result of a successful login or registration.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// RegisterInput is a self-service sign up.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
}

// UserService defines the account and CRM operations.
type UserService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Me(ctx context.Context, actor auth.Principal) (*domain.User, error)
	UpdateMe(ctx context.Context, actor auth.Principal, update domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, actor auth.Principal, current, next string) error
	ListUsers(ctx context.Context, filter domain.Filter) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, update domain.AdminUpdate) (*domain.User, error)
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
	VerifyPassword(ctx context.Context, password, encodedHash string) (bool, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}
