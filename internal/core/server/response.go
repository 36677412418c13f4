package server

import (
	"errors"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Envelope is the canonical success body: {"ok": true, "data": ...}.
type Envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

// ErrorResponse is the canonical failure body.
type ErrorResponse struct {
	// OK is always false.
	OK bool `json:"ok"`
	// Code is a machine-readable error code.
	Code string `json:"code"`
	// Message is the error description shown to the user.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// RayID returns the request id set by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// OK writes data inside the success envelope.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{OK: true, Data: data})
}

// Fail writes err as an error envelope. Unclassified errors become 500s,
// are logged, and do not leak their text.
func Fail(c *fiber.Ctx, err error) error {
	status := apperror.Status(err)
	code := apperror.Code(err)
	msg := apperror.PublicMessage(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, code, msg = fe.Code, "http_error", fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		logger.Get().Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ray_id", RayID(c)),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Code:    code,
		Message: msg,
		RayID:   RayID(c),
	})
}

// ErrorHandler is the Fiber error handler; it renders every returned error
// through Fail so middleware errors share the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Fail(c, err)
}
