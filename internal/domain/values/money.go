package values

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in integer minor units (cents)
// with its ISO 4217 currency. Transaction amounts arrive in minor
// units and stay in minor units; decimal conversion happens only at
// the aggregate-math boundary.
type Money struct {
	minorUnits int64
	currency   string
}

// Common currency codes (ISO 4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
	CAD = "CAD"
)

// NewMoney creates a new Money value object from minor units
func NewMoney(minorUnits int64, currency string) (Money, error) {
	if err := validateCurrency(currency); err != nil {
		return Money{}, err
	}

	return Money{
		minorUnits: minorUnits,
		currency:   strings.ToUpper(currency),
	}, nil
}

// MustNewMoney creates Money and panics on error (for constants/tests)
func MustNewMoney(minorUnits int64, currency string) Money {
	m, err := NewMoney(minorUnits, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value in the given currency
func Zero(currency string) Money {
	return MustNewMoney(0, currency)
}

// MinorUnits returns the raw integer amount
func (m Money) MinorUnits() int64 {
	return m.minorUnits
}

// Currency returns the currency code
func (m Money) Currency() string {
	return m.currency
}

// Decimal returns the major-unit decimal amount (e.g. 500000 -> 5000.00)
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.minorUnits).Div(decimal.NewFromInt(100))
}

// String returns the amount with currency code (e.g. "5000.00 USD")
func (m Money) String() string {
	return m.Decimal().StringFixed(2) + " " + m.currency
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.minorUnits == 0
}

// IsPositive checks if the amount is positive
func (m Money) IsPositive() bool {
	return m.minorUnits > 0
}

// IsRound reports whether the amount is an exact multiple of 100
// minor units. Round amounts are a weak fraud signal.
func (m Money) IsRound() bool {
	return m.minorUnits%100 == 0
}

// Exceeds reports whether the amount is strictly above the given
// minor-unit threshold.
func (m Money) Exceeds(thresholdMinorUnits int64) bool {
	return m.minorUnits > thresholdMinorUnits
}

// Equal checks if two Money values are equal (same amount and currency)
func (m Money) Equal(other Money) bool {
	return m.minorUnits == other.minorUnits && m.currency == other.currency
}

// Add adds two Money values (must have same currency)
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.currency, other.currency)
	}

	return Money{
		minorUnits: m.minorUnits + other.minorUnits,
		currency:   m.currency,
	}, nil
}

// JSON marshaling
func (m Money) MarshalJSON() ([]byte, error) {
	data := struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.minorUnits,
		Currency: m.currency,
	}
	return json.Marshal(data)
}

// JSON unmarshaling
func (m *Money) UnmarshalJSON(data []byte) error {
	var temp struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	money, err := NewMoney(temp.Amount, temp.Currency)
	if err != nil {
		return err
	}

	*m = money
	return nil
}

func validateCurrency(currency string) error {
	if currency == "" {
		return fmt.Errorf("currency cannot be empty")
	}

	currency = strings.ToUpper(currency)

	if len(currency) != 3 {
		return fmt.Errorf("currency code must be 3 characters")
	}

	validCurrencies := map[string]bool{
		USD: true, EUR: true, GBP: true, JPY: true, CAD: true,
		"AUD": true, "CHF": true, "CNY": true, "SEK": true, "NZD": true,
	}

	if !validCurrencies[currency] {
		return fmt.Errorf("unsupported currency: %s", currency)
	}

	return nil
}
