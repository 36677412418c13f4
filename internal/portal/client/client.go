// Package client is the portal's typed client for the FreightDesk API. It
// attaches the session token, unwraps responses, classifies failures into
// apperror kinds and guards mutating calls against duplicate submission.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/httpclient"
	"freightdesk/internal/portal/session"

	"golang.org/x/sync/semaphore"
)

// LoginPath is where an expired session is sent.
const LoginPath = "/login"

// LoginRedirect returns the login route carrying the original path.
func LoginRedirect(original string) string {
	return LoginPath + "?redirect=" + url.QueryEscape(original)
}

// AuthRequiredError is returned for a 401. The session has already been
// cleared; Redirect is where the user should sign in again.
type AuthRequiredError struct {
	Redirect string
	Err      error
}

func (e *AuthRequiredError) Error() string { return e.Err.Error() }

func (e *AuthRequiredError) Unwrap() error { return e.Err }

// Client calls the API on behalf of the session's user.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	// locks holds one *semaphore.Weighted per guard key.
	locks sync.Map
	busy  atomic.Int32
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default logging HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the API at baseURL.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(0),
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a guarded mutating call is in flight. Views use it
// to disable save and upload controls.
func (c *Client) Busy() bool {
	return c.busy.Load() > 0
}

// ErrBusy is returned to a mutating call made while another one on the same
// record is still in flight. Nothing is sent.
var ErrBusy = apperror.Validation("busy", "Another change to this record is still being saved.")

// guarded runs fn unless another call with the same key is in flight, in
// which case it fails fast with ErrBusy. Each call keeps its own context.
func guarded[T any](c *Client, key string, fn func() (T, error)) (T, error) {
	v, _ := c.locks.LoadOrStore(key, semaphore.NewWeighted(1))
	sem := v.(*semaphore.Weighted)
	if !sem.TryAcquire(1) {
		var zero T
		return zero, ErrBusy
	}
	defer sem.Release(1)

	c.busy.Add(1)
	defer c.busy.Add(-1)
	return fn()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	length      int64
	contentType string
	// keys are the wrapper keys tried when unwrapping the response.
	keys []string
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends r and decodes the unwrapped response into out, which may be nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if r.length > 0 {
		req.ContentLength = r.length
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code, msg := decodeError(raw)
		apiErr := apperror.FromStatus(resp.StatusCode, code, msg)
		if resp.StatusCode == http.StatusUnauthorized {
			_ = c.session.Clear()
			return &AuthRequiredError{Redirect: LoginRedirect(r.path), Err: apiErr}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(Unwrap(raw, r.keys...), out); err != nil {
		return apperror.New(apperror.ErrNetwork, "invalid_response", fmt.Sprintf("unexpected response from %s: %v", r.path, err))
	}
	return nil
}

func decodeError(raw []byte) (string, string) {
	var e errorBody
	if json.Unmarshal(raw, &e) != nil {
		return "", ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	return e.Code, msg
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", apperror.ErrCanceled, err)
	}
	return apperror.New(apperror.ErrNetwork, "network_error", err.Error())
}

// Unwrap extracts the payload from a response body. It accepts the
// canonical {"ok":true,"data":...} envelope as well as older shapes: the
// payload under "data", under one of keys (also inside "data"), or bare.
func Unwrap(raw []byte, keys ...string) json.RawMessage {
	payload := json.RawMessage(bytes.TrimSpace(raw))

	if obj, ok := asObject(payload); ok {
		if data, found := obj["data"]; found && !isNull(data) {
			payload = data
		}
	}
	if obj, ok := asObject(payload); ok {
		for _, k := range keys {
			if v, found := obj[k]; found && !isNull(v) {
				return v
			}
		}
	}
	return payload
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// Login signs in and stores the token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (session.State, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return session.State{}, err
	}

	var res struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expiresAt"`
		User      session.User `json:"user"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body, contentType: "application/json"}, &res); err != nil {
		return session.State{}, err
	}

	if err := c.session.Set(res.Token, res.User, res.ExpiresAt); err != nil {
		return session.State{}, err
	}
	return c.session.State(), nil
}

// Logout clears the local session.
func (c *Client) Logout() error {
	return c.session.Clear()
}
