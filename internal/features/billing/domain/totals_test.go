package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotals_TwoStageRounding(t *testing.T) {
	got := CalculateTotals([]LineItemInput{{Quantity: Num(2), UnitPrice: Num(10.005), TaxRate: Num(20)}})

	require.Len(t, got.Lines, 1)
	assert.InDelta(t, 20.01, got.Lines[0].Amount, 1e-9)
	assert.InDelta(t, 4.00, got.Lines[0].Tax, 1e-9)
	assert.InDelta(t, 20.01, got.Subtotal, 1e-9)
	assert.InDelta(t, 4.0, got.TaxTotal, 1e-9)
	assert.InDelta(t, 24.01, got.Total, 1e-9)
}

func TestCalculateTotals_ExplicitAmountWins(t *testing.T) {
	got := CalculateTotals([]LineItemInput{{Quantity: Num(3), UnitPrice: Num(99), Amount: Num(50)}})
	assert.Equal(t, 50.0, got.Lines[0].Amount)
	assert.Equal(t, 50.0, got.Total)
}

func TestCalculateTotals_Coercion(t *testing.T) {
	got := CalculateTotals([]LineItemInput{
		{UnitPrice: Num(12.5)},
		{Quantity: Num(math.NaN()), UnitPrice: Num(4), TaxRate: Num(math.Inf(1))},
		{Quantity: Num(2), UnitPrice: Num(math.Inf(-1)), Amount: Num(math.NaN())},
	})

	require.Len(t, got.Lines, 3)
	assert.Equal(t, 1.0, got.Lines[0].Quantity)
	assert.Equal(t, 12.5, got.Lines[0].Amount)
	assert.Equal(t, 1.0, got.Lines[1].Quantity)
	assert.Equal(t, 0.0, got.Lines[1].TaxRate)
	assert.Equal(t, 4.0, got.Lines[1].Amount)
	assert.Equal(t, 0.0, got.Lines[2].UnitPrice)
	assert.Equal(t, 0.0, got.Lines[2].Amount)
	assert.Equal(t, 16.5, got.Total)
}

func TestCalculateTotals_SumsAreRoundedAgain(t *testing.T) {
	items := make([]LineItemInput, 10)
	for i := range items {
		items[i] = LineItemInput{UnitPrice: Num(0.1), TaxRate: Num(15)}
	}
	got := CalculateTotals(items)

	assert.Equal(t, 1.0, got.Subtotal)
	assert.Equal(t, 0.2, got.TaxTotal)
	assert.Equal(t, 1.2, got.Total)
}

func TestCalculateTotals_Empty(t *testing.T) {
	got := CalculateTotals(nil)
	assert.Empty(t, got.Lines)
	assert.Zero(t, got.Total)
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var items []LineItemInput
	body := `[
		{"quantity": "3", "unitPrice": " 7.25 ", "taxRate": null},
		{"quantity": null, "unitPrice": "abc", "amount": ""},
		{"unitPrice": 10, "amount": "42.5"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &items))

	got := CalculateTotals(items)
	assert.Equal(t, 21.75, got.Lines[0].Amount)
	assert.Equal(t, 0.0, got.Lines[0].TaxRate)
	assert.Equal(t, 1.0, got.Lines[1].Quantity)
	assert.Equal(t, 0.0, got.Lines[1].Amount)
	assert.Equal(t, 42.5, got.Lines[2].Amount)

	out, err := json.Marshal(items[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"","quantity":null,"unitPrice":null,"amount":null,"taxRate":null}`, string(out))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(1.999))
}

func TestFormatMoney(t *testing.T) {
	s, err := FormatMoney(1234.5, "usd", "en")
	require.NoError(t, err)
	assert.Equal(t, "USD 1,234.50", s)

	s, err = FormatMoney(1234.4, "JPY", "en")
	require.NoError(t, err)
	assert.Equal(t, "JPY 1,234", s)

	s, err = FormatMoney(24.01, "GBP", "not a tag")
	require.NoError(t, err)
	assert.Equal(t, "GBP 24.01", s)

	s, err = FormatMoney(1234.5, "EUR", "de")
	require.NoError(t, err)
	assert.Equal(t, "EUR 1.234,50", s)

	_, err = FormatMoney(1, "XXXX", "en")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}
