package domain

import (
	"fmt"
	"strings"
	"time"

	"freightdesk/internal/core/apperror"

	"github.com/google/uuid"
)

var (
	ErrShipmentNotFound     = apperror.NotFound("shipment_not_found", "shipment not found")
	ErrInvalidServiceType   = apperror.Validation("invalid_service_type", "service type must be sea_freight or air_freight")
	ErrInvalidMode          = apperror.Validation("invalid_mode", "mode is not valid for the shipment's service type")
	ErrInvalidStatus        = apperror.Validation("invalid_status", "unknown shipment status")
	ErrInvalidPaymentStatus = apperror.Validation("invalid_payment_status", "unknown payment status")
	ErrInvalidCargoType     = apperror.Validation("invalid_cargo_type", "cargo type must be vehicle, container or general")
	ErrInvalidTransition    = apperror.Validation("invalid_transition", "status transition is not allowed")
	ErrTransitionNotAllowed = apperror.Forbidden("transition_forbidden", "only the quote can be approved or sent back for changes")
	ErrImmutableField       = apperror.Validation("immutable_field", "reference number and service type cannot be changed")
	ErrInvalidDate          = apperror.Validation("invalid_date", "dates must be YYYY-MM-DD or RFC 3339")
	ErrInvalidWeight        = apperror.Validation("invalid_weight", "cargo weight must be a non-negative number")
	ErrMissingCustomer      = apperror.Validation("missing_customer", "a shipment needs a customer")
)

// CargoType tells which cargo sub-record applies.
type CargoType string

const (
	CargoVehicle   CargoType = "vehicle"
	CargoContainer CargoType = "container"
	CargoGeneral   CargoType = "general"
)

// Valid reports whether c is a known cargo type.
func (c CargoType) Valid() bool {
	return c == CargoVehicle || c == CargoContainer || c == CargoGeneral
}

// Contact is a shipper, consignee or notify party.
type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Vessel is only meaningful for sea shipments.
type Vessel struct {
	Name   string `json:"name"`
	Voyage string `json:"voyage"`
}

type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  string `json:"year"`
	VIN   string `json:"vin"`
}

type Container struct {
	Number string `json:"number"`
	Size   string `json:"size"`
	Seal   string `json:"seal"`
}

// Cargo carries a vehicle or a container sub-record depending on the mode.
type Cargo struct {
	Description string     `json:"description"`
	Weight      float64    `json:"weight"`
	Vehicle     *Vehicle   `json:"vehicle,omitempty"`
	Container   *Container `json:"container,omitempty"`
}

// Document is an uploaded file attached to a shipment.
type Document struct {
	Name       string    `json:"name"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// CustomerRef is a weak reference to the owning user.
type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Shipment is the freight order tracked from request through delivery.
type Shipment struct {
	ID              string        `json:"id"`
	ReferenceNo     string        `json:"referenceNo"`
	ServiceType     ServiceType   `json:"serviceType"`
	Mode            string        `json:"mode"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	OriginPort      string        `json:"originPort"`
	DestinationPort string        `json:"destinationPort"`
	Shipper         Contact       `json:"shipper"`
	Consignee       Contact       `json:"consignee"`
	Notify          Contact       `json:"notify"`
	Vessel          *Vessel       `json:"vessel,omitempty"`
	Cargo           Cargo         `json:"cargo"`
	CargoType       CargoType     `json:"cargoType,omitempty"`
	ShippingDate    *time.Time    `json:"shippingDate,omitempty"`
	ETA             *time.Time    `json:"eta,omitempty"`
	Documents       []Document    `json:"documents"`
	Customer        CustomerRef   `json:"customer"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// OwnedBy reports whether userID is the shipment's customer.
func (s *Shipment) OwnedBy(userID string) bool {
	return userID != "" && s.Customer.ID == userID
}

// NewShipmentInput is the data needed to open a shipment.
type NewShipmentInput struct {
	ServiceType     ServiceType   `json:"serviceType"`
	Mode            string        `json:"mode"`
	Status          Status        `json:"status,omitempty"`
	PaymentStatus   PaymentStatus `json:"paymentStatus,omitempty"`
	OriginPort      string        `json:"originPort"`
	DestinationPort string        `json:"destinationPort"`
	Shipper         Contact       `json:"shipper"`
	Consignee       Contact       `json:"consignee"`
	Notify          Contact       `json:"notify"`
	Vessel          *Vessel       `json:"vessel,omitempty"`
	Cargo           Cargo         `json:"cargo"`
	CargoType       CargoType     `json:"cargoType,omitempty"`
	ShippingDate    *time.Time    `json:"shippingDate,omitempty"`
	ETA             *time.Time    `json:"eta,omitempty"`
	Customer        CustomerRef   `json:"customer"`
}

// NewShipment validates in and builds a shipment with a fresh id and
// reference number. An empty mode takes the service type's default.
func NewShipment(in NewShipmentInput, now time.Time) (*Shipment, error) {
	if !in.ServiceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	if in.Customer.ID == "" {
		return nil, ErrMissingCustomer
	}

	mode := in.Mode
	if mode == "" {
		mode = ToBackendMode(in.ServiceType, "")
	}
	if !ValidBackendMode(in.ServiceType, mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	status := in.Status
	if status == "" {
		status = StatusRequestReceived
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	payment := in.PaymentStatus
	if payment == "" {
		payment = PaymentUnpaid
	}
	if !payment.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, payment)
	}

	if in.CargoType != "" && !in.CargoType.Valid() {
		return nil, ErrInvalidCargoType
	}
	if in.Cargo.Weight < 0 {
		return nil, ErrInvalidWeight
	}

	now = now.UTC()
	return &Shipment{
		ID:              uuid.NewString(),
		ReferenceNo:     NewReferenceNo(now),
		ServiceType:     in.ServiceType,
		Mode:            mode,
		Status:          status,
		PaymentStatus:   payment,
		OriginPort:      in.OriginPort,
		DestinationPort: in.DestinationPort,
		Shipper:         in.Shipper,
		Consignee:       in.Consignee,
		Notify:          in.Notify,
		Vessel:          in.Vessel,
		Cargo:           in.Cargo,
		CargoType:       in.CargoType,
		ShippingDate:    in.ShippingDate,
		ETA:             in.ETA,
		Documents:       []Document{},
		Customer:        in.Customer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewReferenceNo returns a reference of the form FF-YYYYMMDD-XXXXXX.
func NewReferenceNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "FF-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(suffix)
}

// Patch is a decoded update payload. A nil field was absent from the
// payload and leaves the stored value unchanged.
type Patch struct {
	ReferenceNo     *string        `json:"referenceNo,omitempty"`
	ServiceType     *ServiceType   `json:"serviceType,omitempty"`
	Mode            *string        `json:"mode,omitempty"`
	Status          *Status        `json:"status,omitempty"`
	PaymentStatus   *PaymentStatus `json:"paymentStatus,omitempty"`
	OriginPort      *string        `json:"originPort,omitempty"`
	DestinationPort *string        `json:"destinationPort,omitempty"`
	Shipper         *Contact       `json:"shipper,omitempty"`
	Consignee       *Contact       `json:"consignee,omitempty"`
	Notify          *Contact       `json:"notify,omitempty"`
	Vessel          *Vessel        `json:"vessel,omitempty"`
	Cargo           *Cargo         `json:"cargo,omitempty"`
	CargoType       *CargoType     `json:"cargoType,omitempty"`
	ShippingDate    *time.Time     `json:"shippingDate,omitempty"`
	ETA             *time.Time     `json:"eta,omitempty"`
}

// CustomerEditable keeps only the fields a customer may change.
func (p Patch) CustomerEditable() Patch {
	return Patch{
		Shipper:         p.Shipper,
		Consignee:       p.Consignee,
		OriginPort:      p.OriginPort,
		DestinationPort: p.DestinationPort,
	}
}

// Change describes what an applied patch did to the lifecycle fields.
type Change struct {
	FromStatus     Status
	ToStatus       Status
	FromPayment    PaymentStatus
	ToPayment      PaymentStatus
	StatusChanged  bool
	PaymentChanged bool
}

// Apply validates p against s and then writes it. Nothing is written when
// validation fails.
func (s *Shipment) Apply(p Patch, admin bool, now time.Time) (Change, error) {
	change := Change{
		FromStatus:  s.Status,
		ToStatus:    s.Status,
		FromPayment: s.PaymentStatus,
		ToPayment:   s.PaymentStatus,
	}

	if p.ReferenceNo != nil && *p.ReferenceNo != s.ReferenceNo {
		return change, ErrImmutableField
	}
	if p.ServiceType != nil && *p.ServiceType != s.ServiceType {
		return change, ErrImmutableField
	}
	if p.Mode != nil && !ValidBackendMode(s.ServiceType, *p.Mode) {
		return change, fmt.Errorf("%w: %q for %s", ErrInvalidMode, *p.Mode, s.ServiceType)
	}
	if p.Status != nil {
		if err := CheckTransition(s.Status, *p.Status, admin); err != nil {
			return change, err
		}
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return change, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, *p.PaymentStatus)
	}
	if p.CargoType != nil && *p.CargoType != "" && !p.CargoType.Valid() {
		return change, ErrInvalidCargoType
	}
	if p.Cargo != nil && p.Cargo.Weight < 0 {
		return change, ErrInvalidWeight
	}

	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.Status != nil {
		change.ToStatus = *p.Status
		change.StatusChanged = s.Status != *p.Status
		s.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		change.ToPayment = *p.PaymentStatus
		change.PaymentChanged = s.PaymentStatus != *p.PaymentStatus
		s.PaymentStatus = *p.PaymentStatus
	}
	setIf(&s.OriginPort, p.OriginPort)
	setIf(&s.DestinationPort, p.DestinationPort)
	setIf(&s.Shipper, p.Shipper)
	setIf(&s.Consignee, p.Consignee)
	setIf(&s.Notify, p.Notify)
	setIf(&s.Cargo, p.Cargo)
	setIf(&s.CargoType, p.CargoType)
	if p.Vessel != nil {
		v := *p.Vessel
		s.Vessel = &v
	}
	if p.ShippingDate != nil {
		d := p.ShippingDate.UTC()
		s.ShippingDate = &d
	}
	if p.ETA != nil {
		d := p.ETA.UTC()
		s.ETA = &d
	}

	s.UpdatedAt = now.UTC()
	return change, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
