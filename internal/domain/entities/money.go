package entities

import (
	"fmt"
	"strings"
)

// Money is an amount in minor units (cents) of a single currency.
//
// Values are immutable: every operation returns a new Money.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoney(amount int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: negative amount %d", ErrValidation, amount)
	}
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: invalid currency %q", ErrValidation, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// WithAmount keeps the currency and replaces the amount.
func (m Money) WithAmount(amount int64) Money {
	return Money{Amount: amount, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
