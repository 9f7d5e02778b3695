package valueobject

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	CNY Currency = "CNY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	HKD Currency = "HKD"
	JPY Currency = "JPY"
)

// ParseCurrency normalizes and validates an ISO 4217 code
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("currency cannot be empty")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// MustParseCurrency is ParseCurrency for constants known to be valid
func MustParseCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether c is a recognized ISO 4217 code
func (c Currency) IsValid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}
