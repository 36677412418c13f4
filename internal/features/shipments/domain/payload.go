package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Form is the working state of a shipment edit form. Values are kept as
// the user typed them; Mode uses the UI vocabulary.
type Form struct {
	ServiceType      ServiceType   `json:"serviceType"`
	Mode             string        `json:"mode"`
	Status           Status        `json:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	OriginPort       string        `json:"originPort"`
	DestinationPort  string        `json:"destinationPort"`
	Shipper          Contact       `json:"shipper"`
	Consignee        Contact       `json:"consignee"`
	Notify           Contact       `json:"notify"`
	VesselName       string        `json:"vesselName"`
	Voyage           string        `json:"voyage"`
	CargoDescription string        `json:"cargoDescription"`
	CargoWeight      string        `json:"cargoWeight"`
	CargoType        CargoType     `json:"cargoType"`
	Vehicle          Vehicle       `json:"vehicle"`
	Container        Container     `json:"container"`
	ShippingDate     string        `json:"shippingDate"`
	ETA              string        `json:"eta"`
}

// UpdatePayload is the body of PUT /shipments/:id. Keys that are absent
// leave the stored field unchanged.
type UpdatePayload map[string]any

// BuildUpdatePayload turns form into an update payload. Empty form values
// fall back to prior; mode always goes through ToBackendMode; override is
// applied last and wins over every computed key. Neither form nor prior is
// modified.
func BuildUpdatePayload(form Form, prior *Shipment, override map[string]any) (UpdatePayload, error) {
	var p Shipment
	if prior != nil {
		p = *prior
	}

	out := UpdatePayload{}

	serviceType := pick(form.ServiceType, p.ServiceType)
	if serviceType != "" {
		out["serviceType"] = serviceType
	}

	uiMode := form.Mode
	if uiMode == "" {
		uiMode = ToUIMode(serviceType, p.Mode)
	}
	out["mode"] = ToBackendMode(serviceType, uiMode)

	setString(out, "status", string(pick(form.Status, p.Status)))
	setString(out, "paymentStatus", string(pick(form.PaymentStatus, p.PaymentStatus)))
	setString(out, "originPort", pick(form.OriginPort, p.OriginPort))
	setString(out, "destinationPort", pick(form.DestinationPort, p.DestinationPort))

	for key, c := range map[string]Contact{
		"shipper":   mergeContact(form.Shipper, p.Shipper),
		"consignee": mergeContact(form.Consignee, p.Consignee),
		"notify":    mergeContact(form.Notify, p.Notify),
	} {
		if c != (Contact{}) {
			out[key] = c
		}
	}

	var priorVessel Vessel
	if p.Vessel != nil {
		priorVessel = *p.Vessel
	}
	vessel := Vessel{
		Name:   pick(form.VesselName, priorVessel.Name),
		Voyage: pick(form.Voyage, priorVessel.Voyage),
	}
	if vessel != (Vessel{}) {
		out["vessel"] = vessel
	}

	cargo, err := mergeCargo(form, p.Cargo)
	if err != nil {
		return nil, err
	}
	out["cargo"] = cargo

	if form.CargoType != "" {
		out["cargoType"] = form.CargoType
	}

	if err := setDate(out, "shippingDate", form.ShippingDate, p.ShippingDate); err != nil {
		return nil, err
	}
	if err := setDate(out, "eta", form.ETA, p.ETA); err != nil {
		return nil, err
	}

	for k, v := range override {
		out[k] = v
	}
	return out, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t.UTC(), nil
}

func pick[T ~string](v, fallback T) T {
	if strings.TrimSpace(string(v)) != "" {
		return v
	}
	return fallback
}

func setString(out UpdatePayload, key, v string) {
	if v != "" {
		out[key] = v
	}
}

func setDate(out UpdatePayload, key, formValue string, prior *time.Time) error {
	if strings.TrimSpace(formValue) != "" {
		t, err := ParseDate(formValue)
		if err != nil {
			return err
		}
		out[key] = t
		return nil
	}
	if prior != nil {
		out[key] = *prior
	}
	return nil
}

func mergeContact(form, prior Contact) Contact {
	return Contact{
		Name:    pick(form.Name, prior.Name),
		Address: pick(form.Address, prior.Address),
		Email:   pick(form.Email, prior.Email),
		Phone:   pick(form.Phone, prior.Phone),
	}
}

func mergeCargo(form Form, prior Cargo) (Cargo, error) {
	out := Cargo{
		Description: pick(form.CargoDescription, prior.Description),
		Weight:      prior.Weight,
	}

	if w := strings.TrimSpace(form.CargoWeight); w != "" {
		weight, err := strconv.ParseFloat(w, 64)
		if err != nil || weight < 0 {
			return Cargo{}, fmt.Errorf("%w: %q", ErrInvalidWeight, w)
		}
		out.Weight = weight
	}

	var pv Vehicle
	if prior.Vehicle != nil {
		pv = *prior.Vehicle
	}
	vehicle := Vehicle{
		Make:  pick(form.Vehicle.Make, pv.Make),
		Model: pick(form.Vehicle.Model, pv.Model),
		Year:  pick(form.Vehicle.Year, pv.Year),
		VIN:   pick(form.Vehicle.VIN, pv.VIN),
	}
	if vehicle != (Vehicle{}) {
		out.Vehicle = &vehicle
	}

	var pc Container
	if prior.Container != nil {
		pc = *prior.Container
	}
	container := Container{
		Number: pick(form.Container.Number, pc.Number),
		Size:   pick(form.Container.Size, pc.Size),
		Seal:   pick(form.Container.Seal, pc.Seal),
	}
	if container != (Container{}) {
		out.Container = &container
	}

	return out, nil
}
