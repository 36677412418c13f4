package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the shipment lifecycle state.
type Status string

// Request pipeline.
const (
	StatusRequestReceived          Status = "request_received"
	StatusUnderReview              Status = "under_review"
	StatusQuoted                   Status = "quoted"
	StatusCustomerRequestedChanges Status = "customer_requested_changes"
	StatusCustomerApproved         Status = "customer_approved"
)

// Operational pipeline.
const (
	StatusBooked       Status = "booked"
	StatusAtOriginYard Status = "at_origin_yard"
	StatusLoaded       Status = "loaded"
	StatusSailed       Status = "sailed"
	StatusArrived      Status = "arrived"
	StatusCleared      Status = "cleared"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusRequestReceived,
	StatusUnderReview,
	StatusQuoted,
	StatusCustomerRequestedChanges,
	StatusCustomerApproved,
	StatusBooked,
	StatusAtOriginYard,
	StatusLoaded,
	StatusSailed,
	StatusArrived,
	StatusCleared,
	StatusDelivered,
	StatusCancelled,
}

// PaymentStatus tracks invoice settlement, independently of Status.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPartPaid  PaymentStatus = "part_paid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOnAccount PaymentStatus = "on_account"
)

// PaymentStatuses lists every payment status.
var PaymentStatuses = []PaymentStatus{PaymentUnpaid, PaymentPartPaid, PaymentPaid, PaymentOnAccount}

// Presentation categories.
const (
	CategoryRequest     = "request"
	CategoryOperational = "operational"
	CategoryComplete    = "complete"
	CategoryCancelled   = "cancelled"

	CategoryDanger  = "danger"
	CategoryWarning = "warning"
	CategorySuccess = "success"
	CategoryInfo    = "info"
)

// Stages split the flat status field into its two workflows.
const (
	StageRequest     = "request"
	StageOperational = "operational"
)

// Classification holds the derived flags views use for styling and button enablement.
type Classification struct {
	IsRequestPipeline bool `json:"isRequestPipeline"`
	IsQuotedStage     bool `json:"isQuotedStage"`
	IsApprovedStage   bool `json:"isApprovedStage"`
	IsBookedStage     bool `json:"isBookedStage"`
}

func (s Status) rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if v == p {
			return true
		}
	}
	return false
}

// Classify derives the pipeline flags of a status.
func Classify(s Status) Classification {
	switch s {
	case StatusRequestReceived, StatusUnderReview, StatusQuoted,
		StatusCustomerRequestedChanges, StatusCustomerApproved:
		return Classification{
			IsRequestPipeline: true,
			IsQuotedStage:     s == StatusQuoted,
			IsApprovedStage:   s == StatusCustomerApproved,
		}
	case StatusBooked:
		return Classification{IsBookedStage: true}
	default:
		return Classification{}
	}
}

// Label turns an enumerated value into a display label, e.g. "under_review"
// becomes "Under Review". Empty input gives "".
func Label(value string) string {
	words := strings.FieldsFunc(value, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Category returns the presentation category of a status, or "" when unknown.
func Category(s Status) string {
	switch {
	case s == StatusDelivered:
		return CategoryComplete
	case s == StatusCancelled:
		return CategoryCancelled
	case Classify(s).IsRequestPipeline:
		return CategoryRequest
	case s.Valid():
		return CategoryOperational
	default:
		return ""
	}
}

// PaymentCategory returns the presentation category of a payment status.
func PaymentCategory(p PaymentStatus) string {
	switch p {
	case PaymentUnpaid:
		return CategoryDanger
	case PaymentPartPaid:
		return CategoryWarning
	case PaymentPaid:
		return CategorySuccess
	case PaymentOnAccount:
		return CategoryInfo
	default:
		return ""
	}
}

// Stage returns the workflow a status belongs to, or "" when unknown.
func Stage(s Status) string {
	switch {
	case Classify(s).IsRequestPipeline:
		return StageRequest
	case s.Valid():
		return StageOperational
	default:
		return ""
	}
}

// CanMarkApproved reports whether the "Mark approved" action is available.
func CanMarkApproved(s Status, busy bool) bool {
	return Classify(s).IsQuotedStage && !busy
}

// CheckTransition enforces who may move a shipment from one status to
// another. Admins may cancel from any non-terminal status, loop changes back
// to a quote, or move forward (skipping steps). Everyone else may only answer
// a quote.
//
// Delivered and cancelled are terminal: cancelling a delivered shipment is
// rejected with ErrInvalidTransition, same as any other move out of them.
func CheckTransition(from, to Status, admin bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}

	if !admin {
		if from == StatusQuoted && (to == StatusCustomerApproved || to == StatusCustomerRequestedChanges) {
			return nil
		}
		return fmt.Errorf("%w: %s to %s", ErrTransitionNotAllowed, from, to)
	}

	switch {
	case to == StatusCancelled:
		return nil
	case from == StatusCustomerRequestedChanges && to == StatusQuoted:
		return nil
	case from.Valid() && to.rank() > from.rank():
		return nil
	default:
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
}
