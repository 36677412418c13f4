package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"freightdesk/internal/core/server"
	shipments "freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/tracking/domain"
	"freightdesk/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) GetTracking(ctx context.Context, ref, email string) (*domain.TrackingView, error) {
	args := m.Called(ctx, ref, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackingView), args.Error(1)
}

func setupApp(svc *MockTrackingService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	NewTrackingHandler(svc).RegisterRoutes(app)
	return app
}

// TestTrackingHandler_GetTracking_Success verifies the public view is returned in the envelope.
func TestTrackingHandler_GetTracking_Success(t *testing.T) {
	svc := new(MockTrackingService)
	view := domain.NewTrackingView(shipments.Shipment{ReferenceNo: "FF-1", Status: shipments.StatusArrived})
	svc.On("GetTracking", mock.Anything, "FF-1", "ada@example.test").Return(&view, nil)

	resp, err := setupApp(svc).Test(httptest.NewRequest(http.MethodGet, "/tracking/FF-1?email=ada@example.test", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		OK   bool                `json:"ok"`
		Data domain.TrackingView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.OK)
	assert.Equal(t, "Arrived", env.Data.StatusLabel)
	assert.Len(t, env.Data.Timeline, len(domain.Milestones))
}

// TestTrackingHandler_GetTracking_NotFound verifies mismatches surface as 404.
func TestTrackingHandler_GetTracking_NotFound(t *testing.T) {
	svc := new(MockTrackingService)
	svc.On("GetTracking", mock.Anything, "FF-1", "mallory@example.test").Return(nil, service.ErrEmailMismatch)

	resp, err := setupApp(svc).Test(httptest.NewRequest(http.MethodGet, "/tracking/FF-1?email=mallory@example.test", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e server.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "tracking_not_found", e.Code)
	assert.Equal(t, "no shipment matches this reference and email", e.Message)
}

// TestTrackingHandler_GetTracking_MissingEmail verifies validation errors surface as 422.
func TestTrackingHandler_GetTracking_MissingEmail(t *testing.T) {
	svc := new(MockTrackingService)
	svc.On("GetTracking", mock.Anything, "FF-1", "").Return(nil, service.ErrMissingParams)

	resp, err := setupApp(svc).Test(httptest.NewRequest(http.MethodGet, "/tracking/FF-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
