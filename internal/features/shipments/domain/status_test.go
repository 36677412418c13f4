package domain

import (
	"testing"

	"freightdesk/internal/core/apperror"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"under_review":               "Under Review",
		"customer_requested_changes": "Customer Requested Changes",
		"at_origin_yard":             "At Origin Yard",
		"on_account":                 "On Account",
		"part-paid":                  "Part Paid",
		"":                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Label(in), in)
	}

	for _, s := range Statuses {
		assert.NotEmpty(t, Label(string(s)), s)
	}
}

func TestClassify(t *testing.T) {
	requestPipeline := map[Status]bool{
		StatusRequestReceived:          true,
		StatusUnderReview:              true,
		StatusQuoted:                   true,
		StatusCustomerRequestedChanges: true,
		StatusCustomerApproved:         true,
	}

	for _, s := range Statuses {
		c := Classify(s)
		assert.Equal(t, requestPipeline[s], c.IsRequestPipeline, s)
		assert.Equal(t, s == StatusQuoted, c.IsQuotedStage, s)
		assert.Equal(t, s == StatusCustomerApproved, c.IsApprovedStage, s)
		assert.Equal(t, s == StatusBooked, c.IsBookedStage, s)
	}

	assert.Equal(t, Classification{}, Classify("bogus"))
}

func TestCategoryAndStage(t *testing.T) {
	assert.Equal(t, CategoryRequest, Category(StatusUnderReview))
	assert.Equal(t, CategoryOperational, Category(StatusSailed))
	assert.Equal(t, CategoryComplete, Category(StatusDelivered))
	assert.Equal(t, CategoryCancelled, Category(StatusCancelled))
	assert.Empty(t, Category("bogus"))

	assert.Equal(t, StageRequest, Stage(StatusQuoted))
	assert.Equal(t, StageOperational, Stage(StatusBooked))
	assert.Empty(t, Stage(""))

	assert.Equal(t, CategoryDanger, PaymentCategory(PaymentUnpaid))
	assert.Equal(t, CategoryWarning, PaymentCategory(PaymentPartPaid))
	assert.Equal(t, CategorySuccess, PaymentCategory(PaymentPaid))
	assert.Equal(t, CategoryInfo, PaymentCategory(PaymentOnAccount))
}

func TestCanMarkApproved(t *testing.T) {
	assert.True(t, CanMarkApproved(StatusQuoted, false))
	assert.False(t, CanMarkApproved(StatusQuoted, true))
	assert.False(t, CanMarkApproved(StatusUnderReview, false))
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		admin   bool
		wantErr error
	}{
		{"admin forward", StatusRequestReceived, StatusUnderReview, true, nil},
		{"admin skip", StatusCustomerApproved, StatusSailed, true, nil},
		{"admin cancel open", StatusLoaded, StatusCancelled, true, nil},
		{"changes loop to quote", StatusCustomerRequestedChanges, StatusQuoted, true, nil},
		{"same status is a no-op", StatusDelivered, StatusDelivered, false, nil},
		{"backward rejected", StatusSailed, StatusBooked, true, ErrInvalidTransition},
		{"admin cancel quoted", StatusQuoted, StatusCancelled, true, nil},
		{"admin cannot cancel delivered", StatusDelivered, StatusCancelled, true, ErrInvalidTransition},
		{"terminal cancelled", StatusCancelled, StatusBooked, true, ErrInvalidTransition},
		{"unknown target", StatusBooked, "teleported", true, ErrInvalidStatus},
		{"customer approves quote", StatusQuoted, StatusCustomerApproved, false, nil},
		{"customer asks for changes", StatusQuoted, StatusCustomerRequestedChanges, false, nil},
		{"customer cannot book", StatusCustomerApproved, StatusBooked, false, ErrTransitionNotAllowed},
		{"customer cannot cancel", StatusQuoted, StatusCancelled, false, ErrTransitionNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.admin)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, CheckTransition(StatusSailed, StatusBooked, true), apperror.ErrValidation)
	assert.ErrorIs(t, CheckTransition(StatusQuoted, StatusBooked, false), apperror.ErrForbidden)
}
