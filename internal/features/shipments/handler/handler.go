package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/server"
	"freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/shipments/ports"

	"github.com/gofiber/fiber/v2"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = apperror.Validation("invalid_body", "request body is not valid JSON")

// ShipmentHandler handles HTTP requests related to shipments.
type ShipmentHandler struct {
	service ports.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(s ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: s}
}

// RegisterRoutes mounts the admin and customer shipment routes. authn must
// authenticate the caller.
func (h *ShipmentHandler) RegisterRoutes(r fiber.Router, authn fiber.Handler) {
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	r.Get("/shipments", authn, adminOnly, h.List)
	r.Get("/shipments/export.csv", authn, adminOnly, h.Export)
	r.Post("/shipments", authn, adminOnly, h.Create)
	r.Get("/shipments/:id", authn, h.Get)
	r.Put("/shipments/:id", authn, h.Update)
	r.Post("/shipments/:id/documents", authn, h.UploadDocument)

	v1 := r.Group("/api/v1/shipments", authn)
	v1.Get("/me/list", h.ListMine)
	v1.Post("/", h.Create)
	v1.Post("/:id/approve", h.Approve)
	v1.Post("/:id/request-changes", h.RequestChanges)
}

// List godoc
// @Summary List shipments
// @Tags shipments
// @Produce json
// @Param q query string false "Search text"
// @Param status query string false "Status"
// @Param paymentStatus query string false "Payment status"
// @Param serviceType query string false "Service type"
// @Param mode query string false "Mode (UI or stored vocabulary)"
// @Success 200 {object} server.Envelope
// @Failure 403 {object} server.ErrorResponse
// @Router /shipments [get]
func (h *ShipmentHandler) List(c *fiber.Ctx) error {
	var filter domain.Filter
	if err := c.QueryParser(&filter); err != nil {
		return server.Fail(c, apperror.Validation("invalid_query", "invalid filter parameters"))
	}

	list, err := h.service.List(c.UserContext(), principal(c), filter)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, list)
}

// Export godoc
// @Summary Export filtered shipments as CSV
// @Tags shipments
// @Produce text/csv
// @Success 200 {string} string
// @Router /shipments/export.csv [get]
func (h *ShipmentHandler) Export(c *fiber.Ctx) error {
	var filter domain.Filter
	if err := c.QueryParser(&filter); err != nil {
		return server.Fail(c, apperror.Validation("invalid_query", "invalid filter parameters"))
	}

	list, err := h.service.List(c.UserContext(), principal(c), filter)
	if err != nil {
		return server.Fail(c, err)
	}

	var buf bytes.Buffer
	if err := domain.WriteCSV(&buf, list); err != nil {
		return server.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="shipments-%s.csv"`, time.Now().UTC().Format("20060102")))
	return c.Status(http.StatusOK).Send(buf.Bytes())
}

// Get godoc
// @Summary Get shipment
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} server.Envelope
// @Failure 404 {object} server.ErrorResponse
// @Router /shipments/{id} [get]
func (h *ShipmentHandler) Get(c *fiber.Ctx) error {
	s, err := h.service.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, s)
}

// Create godoc
// @Summary Create shipment
// @Description Admins create on behalf of a customer; customers submit a booking request.
// @Tags shipments
// @Accept json
// @Produce json
// @Param body body domain.NewShipmentInput true "Shipment"
// @Success 201 {object} server.Envelope
// @Failure 422 {object} server.ErrorResponse
// @Router /shipments [post]
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	var in domain.NewShipmentInput
	if err := c.BodyParser(&in); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	s, err := h.service.Create(c.UserContext(), principal(c), in)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusCreated, s)
}

// Update godoc
// @Summary Update shipment
// @Description Absent keys are left unchanged. Customers may only change parties and ports.
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param body body domain.Patch true "Update payload"
// @Success 200 {object} server.Envelope
// @Failure 422 {object} server.ErrorResponse
// @Router /shipments/{id} [put]
func (h *ShipmentHandler) Update(c *fiber.Ctx) error {
	var patch domain.Patch
	if err := c.BodyParser(&patch); err != nil {
		return server.Fail(c, ErrInvalidBody)
	}

	s, err := h.service.Update(c.UserContext(), principal(c), c.Params("id"), patch)
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, s)
}

// UploadDocument godoc
// @Summary Upload a shipment document
// @Tags shipments
// @Accept mpfd
// @Produce json
// @Param id path string true "Shipment ID"
// @Param file formData file true "Document"
// @Param name formData string false "Display name"
// @Success 201 {object} server.Envelope
// @Router /shipments/{id}/documents [post]
func (h *ShipmentHandler) UploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return server.Fail(c, apperror.Validation("missing_file", "a file is required"))
	}

	f, err := fh.Open()
	if err != nil {
		return server.Fail(c, err)
	}
	defer f.Close()

	doc, err := h.service.AddDocument(c.UserContext(), principal(c), c.Params("id"), ports.Upload{
		Name:        c.FormValue("name"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	})
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusCreated, doc)
}

// ListMine godoc
// @Summary List own shipments
// @Tags customer
// @Produce json
// @Success 200 {object} server.Envelope
// @Router /api/v1/shipments/me/list [get]
func (h *ShipmentHandler) ListMine(c *fiber.Ctx) error {
	list, err := h.service.ListMine(c.UserContext(), principal(c))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, list)
}

// Approve godoc
// @Summary Approve a quote
// @Tags customer
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} server.Envelope
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/shipments/{id}/approve [post]
func (h *ShipmentHandler) Approve(c *fiber.Ctx) error {
	s, err := h.service.Approve(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, s)
}

// RequestChanges godoc
// @Summary Request changes to a quote
// @Tags customer
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} server.Envelope
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/shipments/{id}/request-changes [post]
func (h *ShipmentHandler) RequestChanges(c *fiber.Ctx) error {
	s, err := h.service.RequestChanges(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, s)
}

func principal(c *fiber.Ctx) auth.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}
