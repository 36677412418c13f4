package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/server"
	"freightdesk/internal/features/users/domain"
	"freightdesk/internal/features/users/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService is a mock implementation of ports.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Session), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Session), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, actor auth.Principal) (*domain.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, actor auth.Principal, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, actor, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, actor auth.Principal, current, next string) error {
	return m.Called(ctx, actor, current, next).Error(0)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, update domain.AdminUpdate) (*domain.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	args := m.Called(ctx, email, password)
	return args.Bool(0), args.Error(1)
}

var (
	adminP    = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	customerP = auth.Principal{UserID: "cust-1", Role: auth.RoleCustomer}
)

// fakeAuthn authenticates from the X-Test-Role header.
func fakeAuthn(c *fiber.Ctx) error {
	switch c.Get("X-Test-Role") {
	case auth.RoleAdmin:
		auth.SetPrincipal(c, adminP)
	case auth.RoleCustomer:
		auth.SetPrincipal(c, customerP)
	default:
		return server.Fail(c, auth.ErrMissingToken)
	}
	return c.Next()
}

func setupApp(svc *MockUserService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	NewUserHandler(svc).RegisterRoutes(app, fakeAuthn)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data any) {
	t.Helper()
	var env struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.OK)
	require.NoError(t, json.Unmarshal(env.Data, data))
}

func decodeError(t *testing.T, resp *http.Response) server.ErrorResponse {
	t.Helper()
	var e server.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.False(t, e.OK)
	return e
}

func TestUserHandler_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockUserService)
		app := setupApp(svc)
		exp := time.Date(2026, 5, 1, 21, 0, 0, 0, time.UTC)
		svc.On("Login", mock.Anything, "ada@example.test", "pw").
			Return(&ports.Session{Token: "tok", ExpiresAt: exp, User: &domain.User{ID: "u-1", Email: "ada@example.test"}}, nil)

		resp := do(t, app, http.MethodPost, "/auth/login", "", `{"email":"ada@example.test","password":"pw"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var sess struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		decodeEnvelope(t, resp, &sess)
		assert.Equal(t, "tok", sess.Token)
		assert.Equal(t, "u-1", sess.User.ID)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		svc := new(MockUserService)
		app := setupApp(svc)
		svc.On("Login", mock.Anything, "ada@example.test", "nope").Return(nil, domain.ErrInvalidCredentials)

		resp := do(t, app, http.MethodPost, "/auth/login", "", `{"email":"ada@example.test","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_credentials", decodeError(t, resp).Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		svc := new(MockUserService)
		resp := do(t, setupApp(svc), http.MethodPost, "/auth/login", "", `{"email":`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserHandler_Register(t *testing.T) {
	svc := new(MockUserService)
	app := setupApp(svc)
	in := ports.RegisterInput{Name: "Grace", Email: "grace@example.test", Password: "long-password"}
	svc.On("Register", mock.Anything, in).Return(&ports.Session{Token: "tok", User: &domain.User{ID: "u-2"}}, nil)

	resp := do(t, app, http.MethodPost, "/auth/register", "", `{"name":"Grace","email":"grace@example.test","password":"long-password"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	svc2 := new(MockUserService)
	svc2.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrEmailTaken)
	resp = do(t, setupApp(svc2), http.MethodPost, "/auth/register", "", `{"email":"grace@example.test","password":"long-password"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUserHandler_Me(t *testing.T) {
	t.Run("RequiresAuth", func(t *testing.T) {
		resp := do(t, setupApp(new(MockUserService)), http.MethodGet, "/auth/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Get", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("Me", mock.Anything, customerP).Return(&domain.User{ID: "cust-1", Name: "Ada"}, nil)

		resp := do(t, setupApp(svc), http.MethodGet, "/auth/me", auth.RoleCustomer, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var u domain.User
		decodeEnvelope(t, resp, &u)
		assert.Equal(t, "Ada", u.Name)
	})

	t.Run("Patch", func(t *testing.T) {
		svc := new(MockUserService)
		phone := "+44 20 7946 0000"
		svc.On("UpdateMe", mock.Anything, customerP, domain.ProfileUpdate{Phone: &phone}).
			Return(&domain.User{ID: "cust-1", Phone: phone}, nil)

		resp := do(t, setupApp(svc), http.MethodPatch, "/auth/me", auth.RoleCustomer, `{"phone":"+44 20 7946 0000"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("ChangePassword", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("ChangePassword", mock.Anything, customerP, "old-password", "new-password").Return(nil)

		resp := do(t, setupApp(svc), http.MethodPatch, "/auth/me/password", auth.RoleCustomer,
			`{"currentPassword":"old-password","newPassword":"new-password"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		svc2 := new(MockUserService)
		svc2.On("ChangePassword", mock.Anything, customerP, "guess", "new-password").Return(domain.ErrWrongPassword)
		resp = do(t, setupApp(svc2), http.MethodPatch, "/auth/me/password", auth.RoleCustomer,
			`{"currentPassword":"guess","newPassword":"new-password"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "wrong_password", decodeError(t, resp).Code)
	})
}

func TestUserHandler_AdminRoutes(t *testing.T) {
	t.Run("ForbiddenForCustomers", func(t *testing.T) {
		svc := new(MockUserService)
		resp := do(t, setupApp(svc), http.MethodGet, "/users", auth.RoleCustomer, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		svc.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
	})

	t.Run("ListWithFilter", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("ListUsers", mock.Anything, domain.Filter{Query: "acme", Role: domain.RoleShipper}).
			Return([]domain.User{{ID: "u-9", Notes: "key account"}}, nil)

		resp := do(t, setupApp(svc), http.MethodGet, "/users?q=acme&role=shipper", auth.RoleAdmin, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list []domain.User
		decodeEnvelope(t, resp, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "key account", list[0].Notes)
	})

	t.Run("GetMissing", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("GetUser", mock.Anything, "missing").Return(nil, domain.ErrUserNotFound)

		resp := do(t, setupApp(svc), http.MethodGet, "/users/missing", auth.RoleAdmin, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Patch", func(t *testing.T) {
		svc := new(MockUserService)
		status := domain.StatusSuspended
		notes := "fraud review"
		svc.On("UpdateUser", mock.Anything, "u-9", domain.AdminUpdate{Status: &status, Notes: &notes}).
			Return(&domain.User{ID: "u-9", Status: status, Notes: notes}, nil)

		resp := do(t, setupApp(svc), http.MethodPatch, "/users/u-9", auth.RoleAdmin, `{"status":"suspended","notes":"fraud review"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})
}
