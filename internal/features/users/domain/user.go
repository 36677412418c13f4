package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/auth"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password accepted on register or change.
const MinPasswordLength = 8

// Role is the access role of an account.
type Role string

const (
	RoleAdmin    Role = auth.RoleAdmin
	RoleCustomer Role = auth.RoleCustomer
	RoleUser     Role = auth.RoleUser
	RoleShipper  Role = auth.RoleShipper
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleUser, RoleShipper:
		return true
	}
	return false
}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

// Valid reports whether s is a known account status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusPending:
		return true
	}
	return false
}

var (
	ErrUserNotFound       = apperror.NotFound("user_not_found", "user not found")
	ErrEmailTaken         = apperror.Conflict("email_taken", "an account with this email already exists")
	ErrInvalidCredentials = apperror.Unauthorized("invalid_credentials", "invalid email or password")
	ErrAccountSuspended   = apperror.Forbidden("account_suspended", "this account is suspended")
	ErrInvalidEmail       = apperror.Validation("invalid_email", "email address is not valid")
	ErrWeakPassword       = apperror.Validation("weak_password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	ErrWrongPassword      = apperror.Validation("wrong_password", "current password is incorrect")
	ErrInvalidRole        = apperror.Validation("invalid_role", "role is not valid")
	ErrInvalidStatus      = apperror.Validation("invalid_status", "status is not valid")
)

// User is a portal account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	Address      string    `json:"address,omitempty"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal returns the token identity of u.
func (u *User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Role: string(u.Role), Email: u.Email, Name: u.Name}
}

// Profile returns the self-service view of u. Admin notes are dropped.
func (u User) Profile() User {
	u.Notes = ""
	return u
}

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// CheckPassword enforces the minimum password length.
func CheckPassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// NewUserInput carries the fields of a new account.
type NewUserInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Address string
	Role    Role
	Status  Status
}

// NewUser builds an account. Role defaults to customer and status to active.
func NewUser(in NewUserInput, passwordHash string, now time.Time) (*User, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	now = now.UTC()
	return &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Company:      strings.TrimSpace(in.Company),
		Address:      strings.TrimSpace(in.Address),
		Role:         in.Role,
		Status:       in.Status,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ProfileUpdate holds the self-editable fields. Nil leaves a field unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address *string `json:"address"`
}

// Apply writes the set fields onto u.
func (p ProfileUpdate) Apply(u *User, now time.Time) {
	setTrimmed(&u.Name, p.Name)
	setTrimmed(&u.Phone, p.Phone)
	setTrimmed(&u.Company, p.Company)
	setTrimmed(&u.Address, p.Address)
	u.UpdatedAt = now.UTC()
}

// AdminUpdate holds the CRM fields only admins may change.
type AdminUpdate struct {
	Role   *Role   `json:"role"`
	Status *Status `json:"status"`
	Notes  *string `json:"notes"`
}

// Apply validates the update and writes it onto u. u is untouched on error.
func (a AdminUpdate) Apply(u *User, now time.Time) error {
	if a.Role != nil && !a.Role.Valid() {
		return ErrInvalidRole
	}
	if a.Status != nil && !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if a.Role != nil {
		u.Role = *a.Role
	}
	if a.Status != nil {
		u.Status = *a.Status
	}
	if a.Notes != nil {
		u.Notes = *a.Notes
	}
	u.UpdatedAt = now.UTC()
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
