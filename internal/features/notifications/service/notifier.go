package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"freightdesk/internal/features/notifications/domain"
	"freightdesk/internal/features/notifications/ports"
	shipments "freightdesk/internal/features/shipments/domain"
)

const statusSubject = "Shipment {{.ReferenceNo}}: {{.To}}"

const statusText = `Hello {{.Name}},

Your shipment {{.ReferenceNo}} ({{.Route}}) moved from "{{.From}}" to "{{.To}}".

Track it at {{.PortalURL}}/shipments/{{.ID}}

FreightDesk
`

const statusHTML = `<p>Hello {{.Name}},</p>
<p>Your shipment <strong>{{.ReferenceNo}}</strong> ({{.Route}}) moved from
&ldquo;{{.From}}&rdquo; to <strong>{{.To}}</strong>.</p>
<p><a href="{{.PortalURL}}/shipments/{{.ID}}">View shipment</a></p>
<p>FreightDesk</p>
`

var (
	subjectTmpl = texttemplate.Must(texttemplate.New("subject").Parse(statusSubject))
	textTmpl    = texttemplate.Must(texttemplate.New("text").Parse(statusText))
	htmlTmpl    = htmltemplate.Must(htmltemplate.New("html").Parse(statusHTML))
)

type statusView struct {
	ID          string
	Name        string
	ReferenceNo string
	Route       string
	From        string
	To          string
	PortalURL   string
}

// StatusNotifier mails the customer when their shipment changes status.
type StatusNotifier struct {
	sender    ports.Sender
	portalURL string
}

// NewStatusNotifier creates a StatusNotifier. portalURL prefixes the link in
// the message.
func NewStatusNotifier(sender ports.Sender, portalURL string) *StatusNotifier {
	return &StatusNotifier{sender: sender, portalURL: strings.TrimRight(portalURL, "/")}
}

// NotifyStatusChange sends the status notice. Shipments without a customer
// email are skipped.
func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, s shipments.Shipment, from, to shipments.Status) error {
	if strings.TrimSpace(s.Customer.Email) == "" {
		return nil
	}

	msg, err := n.render(s, from, to)
	if err != nil {
		return err
	}
	if _, err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send status notice for %s: %w", s.ReferenceNo, err)
	}
	return nil
}

func (n *StatusNotifier) render(s shipments.Shipment, from, to shipments.Status) (domain.Message, error) {
	name := s.Customer.Name
	if name == "" {
		name = "customer"
	}
	view := statusView{
		ID:          s.ID,
		Name:        name,
		ReferenceNo: s.ReferenceNo,
		Route:       s.OriginPort + " to " + s.DestinationPort,
		From:        shipments.Label(string(from)),
		To:          shipments.Label(string(to)),
		PortalURL:   n.portalURL,
	}

	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, view); err != nil {
		return domain.Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := textTmpl.Execute(&text, view); err != nil {
		return domain.Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return domain.Message{}, fmt.Errorf("render html: %w", err)
	}

	return domain.Message{
		To:      []string{s.Customer.Email},
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
