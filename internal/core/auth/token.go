// Package auth issues and verifies bearer tokens and guards Fiber routes by role.
package auth

import (
	"errors"
	"fmt"
	"time"

	"freightdesk/internal/core/apperror"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "freightdesk"

// Roles known to the platform.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleUser     = "user"
	RoleShipper  = "shipper"
)

var (
	// ErrMissingToken is returned when no bearer token was sent.
	ErrMissingToken = apperror.Unauthorized("missing_token", "authentication required")
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = apperror.Unauthorized("invalid_token", "invalid or expired token")
	// ErrInsufficientRole is returned when the principal lacks the required role.
	ErrInsufficientRole = apperror.Forbidden("insufficient_role", "you do not have access to this resource")
)

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl is the lifetime of issued tokens.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for p and its expiry.
func (i *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and returns its principal.
func (i *TokenIssuer) Verify(token string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: c.Subject, Role: c.Role, Email: c.Email, Name: c.Name}, nil
}
