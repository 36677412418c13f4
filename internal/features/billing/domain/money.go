package domain

import (
	"fmt"
	"strings"

	"freightdesk/internal/core/apperror"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidCurrency is returned for codes that are not ISO 4217.
var ErrInvalidCurrency = apperror.Validation("invalid_currency", "currency must be an ISO 4217 code")

// FormatMoney renders amount as "<ISO code> <localised number>", using the
// currency's standard number of decimals and lang's digit grouping.
// An unknown lang falls back to English.
func FormatMoney(amount float64, code, lang string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}

	scale, _ := currency.Standard.Rounding(unit)
	p := message.NewPrinter(tag)
	return unit.String() + " " + p.Sprint(number.Decimal(amount, number.Scale(scale))), nil
}
