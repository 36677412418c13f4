package handler

import (
	"net/http"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/server"
	"freightdesk/internal/features/users/domain"
	"freightdesk/internal/features/users/ports"

	"github.com/gofiber/fiber/v2"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = apperror.Validation("invalid_body", "request body is not valid JSON")

// UserHandler handles authentication, profile and CRM requests.
type UserHandler struct {
	service ports.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s ports.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// RegisterRoutes mounts the auth and user routes. authn must authenticate
// the caller.
func (h *UserHandler) RegisterRoutes(r fiber.Router, authn fiber.Handler) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Get("/auth/me", authn, h.Me)
	r.Patch("/auth/me", authn, h.UpdateMe)
	r.Patch("/auth/me/password", authn, h.ChangePassword)

	users := r.Group("/users", authn, auth.RequireRole(auth.RoleAdmin))
	users.Get("/", h.List)
	users.Get("/:id", h.Get)
	users.Patch("/:id", h.Update)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest is the body of PATCH /auth/me/password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} server.Envelope
// @Failure 401 {object} server.ErrorResponse
// @Router /auth/login [post]
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	sess, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, sess)
}

// Register godoc
// @Summary Create a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body ports.RegisterInput true "Account"
// @Success 201 {object} server.Envelope
// @Failure 409 {object} server.ErrorResponse
// @Failure 422 {object} server.ErrorResponse
// @Router /auth/register [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var in ports.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	sess, err := h.service.Register(c.UserContext(), in)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusCreated, sess)
}

// Me godoc
// @Summary Current profile
// @Tags auth
// @Produce json
// @Success 200 {object} server.Envelope
// @Failure 401 {object} server.ErrorResponse
// @Router /auth/me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	u, err := h.service.Me(c.UserContext(), principal(c))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, u)
}

// UpdateMe godoc
// @Summary Update current profile
// @Tags auth
// @Accept json
// @Produce json
// @Param body body domain.ProfileUpdate true "Profile fields"
// @Success 200 {object} server.Envelope
// @Router /auth/me [patch]
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var update domain.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	u, err := h.service.UpdateMe(c.UserContext(), principal(c), update)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, u)
}

// ChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body PasswordChangeRequest true "Passwords"
// @Success 200 {object} server.Envelope
// @Failure 422 {object} server.ErrorResponse
// @Router /auth/me/password [patch]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	if err := h.service.ChangePassword(c.UserContext(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, fiber.Map{"updated": true})
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param q query string false "Search text"
// @Param role query string false "Role"
// @Param status query string false "Status"
// @Success 200 {object} server.Envelope
// @Failure 403 {object} server.ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var filter domain.Filter
	if err := c.QueryParser(&filter); err != nil {
		return server.Fail(c, apperror.Validation("invalid_query", "invalid filter parameters"))
	}

	list, err := h.service.ListUsers(c.UserContext(), filter)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, list)
}

// Get godoc
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} server.Envelope
// @Failure 404 {object} server.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	u, err := h.service.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, u)
}

// Update godoc
// @Summary Update user role, status or notes
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body domain.AdminUpdate true "CRM fields"
// @Success 200 {object} server.Envelope
// @Failure 422 {object} server.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var update domain.AdminUpdate
	if err := c.BodyParser(&update); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	u, err := h.service.UpdateUser(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, u)
}

func principal(c *fiber.Ctx) auth.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}
