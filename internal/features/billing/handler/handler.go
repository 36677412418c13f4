package handler

import (
	"net/http"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/server"
	"freightdesk/internal/features/billing/domain"

	"github.com/gofiber/fiber/v2"
)

// TotalsRequest is the body of POST /api/v1/quotes/totals.
type TotalsRequest struct {
	Items []domain.LineItemInput `json:"items"`
	// Currency, when set, adds formatted amounts to the response.
	Currency string `json:"currency,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// FormattedTotals holds display strings for the summed amounts.
type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	TaxTotal string `json:"taxTotal"`
	Total    string `json:"total"`
}

// TotalsResponse is the calculated quote.
type TotalsResponse struct {
	domain.Totals
	Currency  string           `json:"currency,omitempty"`
	Formatted *FormattedTotals `json:"formatted,omitempty"`
}

// QuoteHandler serves the quote calculator.
type QuoteHandler struct{}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler() *QuoteHandler {
	return &QuoteHandler{}
}

// Totals godoc
// @Summary Calculate quote totals
// @Tags billing
// @Accept json
// @Produce json
// @Param body body TotalsRequest true "Line items"
// @Success 200 {object} server.Envelope
// @Failure 422 {object} server.ErrorResponse
// @Router /api/v1/quotes/totals [post]
func (h *QuoteHandler) Totals(c *fiber.Ctx) error {
	var req TotalsRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Validation("invalid_body", "request body is not valid JSON"))
	}

	resp := TotalsResponse{Totals: domain.CalculateTotals(req.Items)}

	if req.Currency != "" {
		f, err := format(resp.Totals, req.Currency, req.Lang)
		if err != nil {
			return server.Fail(c, err)
		}
		resp.Currency = req.Currency
		resp.Formatted = f
	}

	return server.OK(c, http.StatusOK, resp)
}

func format(t domain.Totals, code, lang string) (*FormattedTotals, error) {
	var out FormattedTotals
	for _, v := range []struct {
		dst    *string
		amount float64
	}{
		{&out.Subtotal, t.Subtotal},
		{&out.TaxTotal, t.TaxTotal},
		{&out.Total, t.Total},
	} {
		s, err := domain.FormatMoney(v.amount, code, lang)
		if err != nil {
			return nil, err
		}
		*v.dst = s
	}
	return &out, nil
}
