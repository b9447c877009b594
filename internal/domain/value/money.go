package value

import (
	"fmt"
	"math"
	"strings"

	"github.com/geocoder89/yardsale/internal/apperr"
)

var (
	ErrNegativeAmount   = apperr.Validation("Money.NegativeAmount", "amount must be a non-negative number")
	ErrInvalidCurrency  = apperr.Validation("Money.InvalidCurrency", "currency must be a 3-letter code")
	ErrCurrencyMismatch = apperr.Validation("Money.CurrencyMismatch", "cannot combine amounts in different currencies")
	ErrNegativeResult   = apperr.Validation("Money.NegativeResult", "operation would produce a negative amount")
)

// Money is a non-negative amount rounded to cents.
type Money struct {
	amount   float64
	currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	var errs apperr.List

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		errs.Add(ErrNegativeAmount)
	}

	code := strings.ToUpper(strings.TrimSpace(currency))
	if !isCurrencyCode(code) {
		errs.Add(ErrInvalidCurrency)
	}

	if err := errs.Err(); err != nil {
		return Money{}, err
	}

	return Money{amount: roundCents(amount), currency: code}, nil
}

func ZeroMoney(currency string) (Money, error) {
	return NewMoney(0, currency)
}

func (m Money) Amount() float64  { return m.amount }
func (m Money) Currency() string { return m.currency }

func (m Money) IsZero() bool {
	return m.amount == 0
}

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: roundCents(m.amount + other.amount), currency: m.currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}

	result := roundCents(m.amount - other.amount)
	if result < 0 {
		return Money{}, ErrNegativeResult
	}

	return Money{amount: result, currency: m.currency}, nil
}

// Compare returns -1, 0 or 1 like strings.Compare.
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, ErrCurrencyMismatch
	}

	switch {
	case m.amount < other.amount:
		return -1, nil
	case m.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.amount, m.currency)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RestoreMoney rebuilds a stored amount without validation.
func RestoreMoney(amount float64, currency string) Money {
	return Money{amount: amount, currency: currency}
}
