package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a naira value. Amounts are whole units (the demo wallet
// does not model kobo), stored as int64 and converted to decimal for
// aggregate math and display.
type Money struct {
	Amount   int64
	Currency string
}

// NewMoney creates a Money value in the default currency.
func NewMoney(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// ToDecimal converts the amount to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount)
}

// Percentage returns part/whole as a percentage with two decimal places.
// Returns zero when whole is zero.
func Percentage(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// String returns the display form, e.g. "NGN 125400".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.ToDecimal().StringFixed(0))
}
