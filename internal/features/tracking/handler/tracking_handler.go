package handler

import (
	"net/http"

	"freightdesk/internal/core/server"
	"freightdesk/internal/features/tracking/ports"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles the public tracking lookup.
type TrackingHandler struct {
	trackingService ports.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// RegisterRoutes mounts the public tracking route.
func (h *TrackingHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/tracking/:referenceNo", h.GetTracking)
}

// GetTracking godoc
// @Summary Track a shipment
// @Description Public lookup by reference number. The email must belong to the customer or a party of the shipment.
// @Tags tracking
// @Produce json
// @Param referenceNo path string true "Reference number"
// @Param email query string true "Contact email"
// @Success 200 {object} server.Envelope
// @Failure 404 {object} server.ErrorResponse
// @Failure 422 {object} server.ErrorResponse
// @Router /tracking/{referenceNo} [get]
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	view, err := h.trackingService.GetTracking(c.UserContext(), c.Params("referenceNo"), c.Query("email"))
	if err != nil {
		return server.Fail(c, err)
	}
	return server.OK(c, http.StatusOK, view)
}
