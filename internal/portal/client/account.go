package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	billing "freightdesk/internal/features/billing/domain"
	tracking "freightdesk/internal/features/tracking/domain"
	users "freightdesk/internal/features/users/domain"
)

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*users.User, error) {
	var out users.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", keys: []string{"user"}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe changes the signed-in user's profile fields.
func (c *Client) UpdateMe(ctx context.Context, update users.ProfileUpdate) (*users.User, error) {
	return guarded(c, "profile", func() (*users.User, error) {
		body, err := jsonBody(update)
		if err != nil {
			return nil, err
		}
		var out users.User
		if err := c.do(ctx, request{
			method:      http.MethodPatch,
			path:        "/auth/me",
			body:        body,
			contentType: "application/json",
			keys:        []string{"user"},
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// ChangePassword replaces the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	_, err := guarded(c, "password", func() (struct{}, error) {
		body, err := jsonBody(map[string]string{"currentPassword": current, "newPassword": next})
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.do(ctx, request{
			method:      http.MethodPatch,
			path:        "/auth/me/password",
			body:        body,
			contentType: "application/json",
		}, nil)
	})
	return err
}

// GetUser returns a user by id. Admin only.
func (c *Client) GetUser(ctx context.Context, id string) (*users.User, error) {
	var out users.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/" + url.PathEscape(id), keys: []string{"user"}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context, filter users.Filter) ([]users.User, error) {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.Role != "" {
		q.Set("role", string(filter.Role))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	var out []users.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/users", query: q, keys: []string{"users"}}, &out)
	return out, err
}

// Quote is the calculated quote summary.
type Quote struct {
	billing.Totals
	Currency  string `json:"currency,omitempty"`
	Formatted *struct {
		Subtotal string `json:"subtotal"`
		TaxTotal string `json:"taxTotal"`
		Total    string `json:"total"`
	} `json:"formatted,omitempty"`
}

// Totals asks the API to total items. currency and lang are optional.
func (c *Client) Totals(ctx context.Context, items []billing.LineItemInput, currency, lang string) (*Quote, error) {
	body, err := jsonBody(map[string]any{"items": items, "currency": currency, "lang": lang})
	if err != nil {
		return nil, err
	}
	var out Quote
	if err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/quotes/totals",
		body:        body,
		contentType: "application/json",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track looks up a shipment on the public tracking page.
func (c *Client) Track(ctx context.Context, referenceNo, email string) (*tracking.TrackingView, error) {
	var out tracking.TrackingView
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/tracking/" + url.PathEscape(strings.TrimSpace(referenceNo)),
		query:  url.Values{"email": {email}},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
