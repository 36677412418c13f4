package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Verifier validates a bearer token.
type Verifier interface {
	Verify(token string) (Principal, error)
}

// Middleware rejects requests without a valid "Authorization: Bearer <token>"
// header and stores the caller's Principal in the request locals.
func Middleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return ErrMissingToken
		}

		p, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return err
		}

		SetPrincipal(c, p)
		return c.Next()
	}
}

// RequireRole allows the request through only for the listed roles.
// It must run after Middleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return ErrMissingToken
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return ErrInsufficientRole
	}
}

// SetPrincipal stores p in the request locals.
func SetPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}
