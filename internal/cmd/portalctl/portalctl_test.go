package portalctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/portal/client"
	"freightdesk/internal/portal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app  *App
	sess *session.Session
	out  *bytes.Buffer
	in   *bytes.Buffer
	hits map[string]int
}

func newFixture(t *testing.T, role string, h http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{out: new(bytes.Buffer), in: new(bytes.Buffer), hits: map[string]int{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits[r.Method+" "+r.URL.Path]++
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	sess, err := session.New("")
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, sess.Set("tok", session.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: role}, time.Now().Add(time.Hour)))
	}
	f.sess = sess

	c := client.New(srv.URL, sess, client.WithHTTPClient(srv.Client()))
	f.app = NewApp(c, sess, Config{Currency: "USD", Lang: "en"}, f.in, f.out)
	return f
}

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": status < 300, "data": data})
}

func shipment(id, ref string, status domain.Status, origin string) domain.Shipment {
	return domain.Shipment{
		ID:              id,
		ReferenceNo:     ref,
		ServiceType:     domain.ServiceSea,
		Mode:            domain.ModeContainer,
		Status:          status,
		PaymentStatus:   domain.PaymentUnpaid,
		OriginPort:      origin,
		DestinationPort: "Mombasa",
		Customer:        domain.CustomerRef{ID: "u1", Name: "Ana"},
		Documents:       []domain.Document{},
		CreatedAt:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExec_HelpAndUsage(t *testing.T) {
	f := newFixture(t, "", nil)

	require.NoError(t, f.app.Exec(context.Background(), []string{"help"}))
	assert.Contains(t, f.out.String(), "set-status")
	assert.Contains(t, f.out.String(), "export")

	assert.ErrorIs(t, f.app.Exec(context.Background(), nil), ErrUsage)
	assert.ErrorIs(t, f.app.Exec(context.Background(), []string{"frobnicate"}), ErrUsage)
}

func TestList_RequiresLogin(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	err := f.app.Exec(context.Background(), []string{"list"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Contains(t, Describe(err), "portalctl login")
}

func TestList_AdminUsesServerFilter(t *testing.T) {
	f := newFixture(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipments", r.URL.Path)
		assert.Equal(t, "sailed", r.URL.Query().Get("status"))
		reply(w, http.StatusOK, []domain.Shipment{shipment("s1", "FD-1", domain.StatusSailed, "Jebel Ali")})
	})

	require.NoError(t, f.app.Exec(context.Background(), []string{"list", "--status", "sailed"}))
	out := f.out.String()
	assert.Contains(t, out, "FD-1")
	assert.Contains(t, out, "Jebel Ali → Mombasa")
	assert.Contains(t, out, "FCL (Container)")
	assert.Contains(t, out, "Sailed")
}

func TestList_CustomerFiltersLocally(t *testing.T) {
	f := newFixture(t, "customer", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/shipments/me/list", r.URL.Path)
		reply(w, http.StatusOK, []domain.Shipment{
			shipment("s1", "FD-1", domain.StatusSailed, "Jebel Ali"),
			shipment("s2", "FD-2", domain.StatusQuoted, "Durban"),
		})
	})

	require.NoError(t, f.app.Exec(context.Background(), []string{"list", "--q", "durban"}))
	assert.Contains(t, f.out.String(), "FD-2")
	assert.NotContains(t, f.out.String(), "FD-1")
}

func TestSetStatus_CustomerCannotAdvance(t *testing.T) {
	f := newFixture(t, "customer", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected %s", r.Method)
		}
		reply(w, http.StatusOK, shipment("s1", "FD-1", domain.StatusBooked, "Jebel Ali"))
	})

	err := f.app.Exec(context.Background(), []string{"set-status", "s1", "sailed"})
	assert.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
}

func TestSetStatus_Admin(t *testing.T) {
	var sent map[string]any
	f := newFixture(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		s := shipment("s1", "FD-1", domain.StatusBooked, "Jebel Ali")
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&sent)
			s.Status = domain.StatusLoaded
		}
		reply(w, http.StatusOK, s)
	})

	require.NoError(t, f.app.Exec(context.Background(), []string{"set-status", "s1", "loaded"}))
	assert.Equal(t, "loaded", sent["status"])
	assert.Equal(t, domain.ModeContainer, sent["mode"])
	assert.Contains(t, f.out.String(), "FD-1 is now Loaded")
}

func TestApprove_OnlyQuoted(t *testing.T) {
	f := newFixture(t, "customer", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, shipment("s1", "FD-1", domain.StatusBooked, "Jebel Ali"))
	})

	err := f.app.Exec(context.Background(), []string{"approve", "s1"})
	assert.ErrorContains(t, err, "no quote to approve")
	assert.Zero(t, f.hits["POST /api/v1/shipments/s1/approve"])
}

func TestExport_ToFile(t *testing.T) {
	f := newFixture(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.Shipment{shipment("s1", "FD-1", domain.StatusSailed, "Port, Louis")})
	})

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, f.app.Exec(context.Background(), []string{"export", "--out", path}))
	assert.Contains(t, f.out.String(), "Exported 1 shipments")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), strings.Join(domain.ExportHeader, ",")))
	assert.Contains(t, string(b), `"Port, Louis"`)
}

func TestExport_FailureRemovesFile(t *testing.T) {
	f := newFixture(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	path := filepath.Join(t.TempDir(), "out.csv")
	err := f.app.Exec(context.Background(), []string{"export", "--out", path})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.NoFileExists(t, path)
}

func TestTotals_FromStdin(t *testing.T) {
	f := newFixture(t, "customer", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quotes/totals", r.URL.Path)
		reply(w, http.StatusOK, map[string]any{
			"lines":    []map[string]any{{"description": "Ocean freight", "quantity": 2, "unitPrice": 50, "amount": 100, "taxRate": 5, "tax": 5}},
			"subtotal": 100, "taxTotal": 5, "total": 105,
			"formatted": map[string]string{"subtotal": "$100.00", "taxTotal": "$5.00", "total": "$105.00"},
		})
	})
	f.in.WriteString(`[{"description":"Ocean freight","quantity":"2","unitPrice":50,"taxRate":5}]`)

	require.NoError(t, f.app.Exec(context.Background(), []string{"totals"}))
	assert.Contains(t, f.out.String(), "Ocean freight")
	assert.Contains(t, f.out.String(), "$105.00")
}

func TestTrack(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{
			"referenceNo": "FD-1", "serviceType": "Sea Freight", "mode": "FCL (Container)",
			"originPort": "Jebel Ali", "destinationPort": "Mombasa",
			"status": "sailed", "statusLabel": "Sailed",
			"timeline": []map[string]any{{"status": "booked", "label": "Booked", "reached": true}, {"status": "delivered", "label": "Delivered"}},
		})
	})

	require.NoError(t, f.app.Exec(context.Background(), []string{"track", "--email", "ana@example.com", "FD-1"}))
	out := f.out.String()
	assert.Contains(t, out, "Status: Sailed")
	assert.Contains(t, out, "[x] Booked")
	assert.Contains(t, out, "[ ] Delivered")
}

func TestExpiredSessionIsCleared(t *testing.T) {
	f := newFixture(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnauthorized, nil)
	})

	err := f.app.Exec(context.Background(), []string{"show", "s1"})
	require.Error(t, err)
	assert.Contains(t, Describe(err), "session has expired")
	assert.Empty(t, f.sess.Token())
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Empty(t, Describe(apperror.ErrCanceled))
	assert.Equal(t, "not your shipment", Describe(apperror.Forbidden("not_owner", "not your shipment")))
	assert.Equal(t, assert.AnError.Error(), Describe(assert.AnError))
}
