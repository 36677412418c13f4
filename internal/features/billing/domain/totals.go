// Package domain computes quote and invoice totals.
package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric input. It accepts JSON numbers and numeric
// strings; null, "" and a missing key leave it unset, anything unparsable
// is set but not finite.
type Number struct {
	value   float64
	present bool
}

// Num returns a set Number.
func Num(v float64) Number {
	return Number{value: v, present: true}
}

// Set reports whether a value was supplied.
func (n Number) Set() bool {
	return n.present
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = Number{}
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v = math.NaN()
	}
	*n = Number{value: v, present: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.present || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

func (n Number) or(def float64) float64 {
	if !n.present || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		return def
	}
	return n.value
}

// LineItemInput is one quote line as submitted.
type LineItemInput struct {
	Description string `json:"description"`
	Quantity    Number `json:"quantity"`
	UnitPrice   Number `json:"unitPrice"`
	// Amount, when set, replaces Quantity x UnitPrice.
	Amount  Number `json:"amount"`
	TaxRate Number `json:"taxRate"`
}

// Line is a normalised quote line.
type Line struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
	TaxRate     float64 `json:"taxRate"`
	Tax         float64 `json:"tax"`
}

// Totals is the result of CalculateTotals.
type Totals struct {
	Lines    []Line  `json:"lines"`
	Subtotal float64 `json:"subtotal"`
	TaxTotal float64 `json:"taxTotal"`
	Total    float64 `json:"total"`
}

// CalculateTotals normalises items and sums them. Every money value is
// rounded to cents per line first, then the sums are rounded again.
// Missing or non-finite quantities count as 1; other missing or non-finite
// values count as 0.
func CalculateTotals(items []LineItemInput) Totals {
	out := Totals{Lines: make([]Line, 0, len(items))}

	var subtotal, taxTotal float64
	for _, it := range items {
		qty := it.Quantity.or(1)
		price := it.UnitPrice.or(0)
		rate := it.TaxRate.or(0)

		amount := qty * price
		if it.Amount.Set() {
			amount = it.Amount.or(0)
		}
		amount = Round2(amount)
		tax := Round2(amount * rate / 100)

		out.Lines = append(out.Lines, Line{
			Description: it.Description,
			Quantity:    qty,
			UnitPrice:   Round2(price),
			Amount:      amount,
			TaxRate:     rate,
			Tax:         tax,
		})
		subtotal += amount
		taxTotal += tax
	}

	out.Subtotal = Round2(subtotal)
	out.TaxTotal = Round2(taxTotal)
	out.Total = Round2(out.Subtotal + out.TaxTotal)
	return out
}

// Round2 rounds to two decimals, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
