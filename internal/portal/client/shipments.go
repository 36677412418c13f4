package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"freightdesk/internal/features/shipments/domain"
)

// ListShipments returns every shipment matching filter. Admin only.
func (c *Client) ListShipments(ctx context.Context, filter domain.Filter) ([]domain.Shipment, error) {
	var out []domain.Shipment
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/shipments",
		query:  filterQuery(filter),
		keys:   []string{"shipments"},
	}, &out)
	return out, err
}

// MyShipments returns the caller's own shipments.
func (c *Client) MyShipments(ctx context.Context) ([]domain.Shipment, error) {
	var out []domain.Shipment
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/shipments/me/list",
		keys:   []string{"shipments"},
	}, &out)
	return out, err
}

// GetShipment returns one shipment.
func (c *Client) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	var out domain.Shipment
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/shipments/" + url.PathEscape(id),
		keys:   []string{"shipment"},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment submits a new shipment or booking request.
func (c *Client) CreateShipment(ctx context.Context, in domain.NewShipmentInput) (*domain.Shipment, error) {
	return guarded(c, "create", func() (*domain.Shipment, error) {
		body, err := jsonBody(in)
		if err != nil {
			return nil, err
		}
		var out domain.Shipment
		if err := c.do(ctx, request{
			method:      http.MethodPost,
			path:        "/shipments",
			body:        body,
			contentType: "application/json",
			keys:        []string{"shipment"},
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// UpdateShipment sends payload as-is. A second save of the same shipment
// while one is in flight fails with ErrBusy.
func (c *Client) UpdateShipment(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Shipment, error) {
	return guarded(c, "update:"+id, func() (*domain.Shipment, error) {
		body, err := jsonBody(payload)
		if err != nil {
			return nil, err
		}
		var out domain.Shipment
		if err := c.do(ctx, request{
			method:      http.MethodPut,
			path:        "/shipments/" + url.PathEscape(id),
			body:        body,
			contentType: "application/json",
			keys:        []string{"shipment"},
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// SaveForm builds the update payload from form and prior and sends it.
func (c *Client) SaveForm(ctx context.Context, prior *domain.Shipment, form domain.Form) (*domain.Shipment, error) {
	payload, err := domain.BuildUpdatePayload(form, prior, nil)
	if err != nil {
		return nil, err
	}
	return c.UpdateShipment(ctx, prior.ID, payload)
}

// SetStatus moves a shipment to status. The rest of the stored record is
// resent unchanged so that mode stays in the stored vocabulary.
func (c *Client) SetStatus(ctx context.Context, prior *domain.Shipment, status domain.Status) (*domain.Shipment, error) {
	payload, err := domain.BuildUpdatePayload(domain.Form{}, prior, map[string]any{"status": status})
	if err != nil {
		return nil, err
	}
	return c.UpdateShipment(ctx, prior.ID, payload)
}

// Approve accepts the quote on the caller's shipment.
func (c *Client) Approve(ctx context.Context, id string) (*domain.Shipment, error) {
	return c.quoteAction(ctx, id, "approve")
}

// RequestChanges asks for a revised quote.
func (c *Client) RequestChanges(ctx context.Context, id string) (*domain.Shipment, error) {
	return c.quoteAction(ctx, id, "request-changes")
}

func (c *Client) quoteAction(ctx context.Context, id, action string) (*domain.Shipment, error) {
	return guarded(c, action+":"+id, func() (*domain.Shipment, error) {
		var out domain.Shipment
		if err := c.do(ctx, request{
			method: http.MethodPost,
			path:   "/api/v1/shipments/" + url.PathEscape(id) + "/" + action,
			keys:   []string{"shipment"},
		}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// Progress receives upload progress as a percentage from 0 to 100.
type Progress func(percent int)

// UploadDocument attaches a file to a shipment. progress may be nil.
func (c *Client) UploadDocument(ctx context.Context, id, name, filename string, r io.Reader, progress Progress) (*domain.Document, error) {
	return guarded(c, "upload:"+id, func() (*domain.Document, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if name != "" {
			if err := mw.WriteField("name", name); err != nil {
				return nil, fmt.Errorf("write form: %w", err)
			}
		}
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			return nil, fmt.Errorf("write form: %w", err)
		}
		if _, err := io.Copy(part, r); err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("write form: %w", err)
		}

		body := &progressReader{r: &buf, total: int64(buf.Len()), report: progress}
		body.emit(0)

		var out domain.Document
		if err := c.do(ctx, request{
			method:      http.MethodPost,
			path:        "/shipments/" + url.PathEscape(id) + "/documents",
			body:        body,
			length:      body.total,
			contentType: mw.FormDataContentType(),
			keys:        []string{"document"},
		}, &out); err != nil {
			return nil, err
		}
		body.emit(100)
		return &out, nil
	})
}

// ExportCSV writes the filtered shipments as CSV to w.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer, filter domain.Filter) (int, error) {
	list, err := c.ListShipments(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := domain.WriteCSV(w, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

func filterQuery(f domain.Filter) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", f.Query)
	set("status", string(f.Status))
	set("paymentStatus", string(f.PaymentStatus))
	set("serviceType", string(f.ServiceType))
	set("mode", f.Mode)
	return q
}

// progressReader reports how much of the body has been read. The last
// percent is held back until the server has answered.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	last    int
	started bool
	report  Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.emit(pct)
	}
	return n, err
}

func (p *progressReader) emit(pct int) {
	if p.report == nil || (p.started && pct <= p.last) {
		return
	}
	p.started = true
	p.last = pct
	p.report(pct)
}
