package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("service: %w", Validation("invalid_mode", "mode is not valid for sea_freight"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "invalid_mode", Code(err))
	assert.Equal(t, "mode is not valid for sea_freight", PublicMessage(err))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Unauthorized("token_expired", "expired"), http.StatusUnauthorized},
		{Forbidden("forbidden", "no"), http.StatusForbidden},
		{NotFound("shipment_not_found", "missing"), http.StatusNotFound},
		{Conflict("email_taken", "taken"), http.StatusConflict},
		{Validation("bad", "bad"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err))
	}
}

func TestPublicMessage_HidesUnclassified(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}

func TestFromStatus(t *testing.T) {
	assert.ErrorIs(t, FromStatus(http.StatusUnauthorized, "", ""), ErrUnauthorized)
	assert.ErrorIs(t, FromStatus(http.StatusBadRequest, "", ""), ErrValidation)
	assert.ErrorIs(t, FromStatus(http.StatusUnprocessableEntity, "", ""), ErrValidation)
	assert.ErrorIs(t, FromStatus(http.StatusNotFound, "", ""), ErrNotFound)
	assert.ErrorIs(t, FromStatus(http.StatusBadGateway, "", ""), ErrNetwork)
}

func TestDisplay(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		msg, show := Display(nil)
		assert.False(t, show)
		assert.Empty(t, msg)
	})

	t.Run("CanceledIsSwallowed", func(t *testing.T) {
		_, show := Display(fmt.Errorf("get shipments: %w", context.Canceled))
		assert.False(t, show)

		_, show = Display(ErrCanceled)
		assert.False(t, show)
	})

	t.Run("ValidationShowsServerMessage", func(t *testing.T) {
		msg, show := Display(Validation("invalid_transition", "cannot move from delivered to booked"))
		assert.True(t, show)
		assert.Equal(t, "cannot move from delivered to booked", msg)
	})

	t.Run("NotFoundIsDistinct", func(t *testing.T) {
		msg, show := Display(NotFound("shipment_not_found", "shipment not found"))
		assert.True(t, show)
		assert.Equal(t, "The requested record could not be found.", msg)
	})

	t.Run("NetworkSuggestsRetry", func(t *testing.T) {
		msg, _ := Display(New(ErrNetwork, "", "dial tcp: refused"))
		assert.Contains(t, msg, "try again")
	})

	t.Run("Unknown", func(t *testing.T) {
		msg, show := Display(errors.New("boom"))
		assert.True(t, show)
		assert.Equal(t, "Something went wrong. Please try again.", msg)
	})
}
