package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Mode selects which rate column a conversion uses
type Mode string

const (
	ModeFixed    Mode = "fixed"
	ModeFloating Mode = "floating"
	// ModeOriginal disables conversion; amounts are reported as-is in the reference currency
	ModeOriginal Mode = "original"
)

// ParseMode parses a mode, defaulting to fixed when empty
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFixed:
		return ModeFixed, nil
	case ModeFloating:
		return ModeFloating, nil
	case ModeOriginal:
		return ModeOriginal, nil
	}
	return "", shared.NewValidationError("INVALID_CURRENCY_MODE", fmt.Sprintf("Unknown currency mode %q", s))
}

// Rate is the configured exchange rate of one currency against the base
type Rate struct {
	Code     valueobject.Currency `json:"code"`
	Fixed    decimal.Decimal      `json:"fixed_rate"`
	Floating decimal.Decimal      `json:"floating_rate"`
	IsBase   bool                 `json:"is_base"`
}

var one = decimal.NewFromInt(1)

// RateTable is an immutable snapshot of exchange rates.
// Rates express units of the currency per one unit of the base currency.
type RateTable struct {
	rates     map[valueobject.Currency]Rate
	base      valueobject.Currency
	fallback  valueobject.Currency
	reference valueobject.Currency
}

// NewRateTable validates and indexes rates. Exactly one base currency is required.
// fallback is used for unknown codes; reference is the reporting currency of original mode.
func NewRateTable(rates []Rate, fallback, reference valueobject.Currency) (*RateTable, error) {
	t := &RateTable{rates: make(map[valueobject.Currency]Rate, len(rates))}
	for _, r := range rates {
		if r.IsBase {
			if t.base != "" && t.base != r.Code {
				return nil, shared.NewConfigError("MULTIPLE_BASE_CURRENCIES",
					fmt.Sprintf("Both %s and %s are marked as base currency", t.base, r.Code))
			}
			t.base = r.Code
			r.Fixed, r.Floating = one, one
		}
		t.rates[r.Code] = r
	}
	if t.base == "" {
		return nil, shared.NewConfigError("BASE_CURRENCY_MISSING", "No base currency is configured")
	}
	t.fallback = fallback
	if t.fallback == "" {
		t.fallback = t.base
	}
	t.reference = reference
	if t.reference == "" {
		t.reference = t.base
	}
	return t, nil
}

// Base returns the base currency
func (t *RateTable) Base() valueobject.Currency { return t.base }

// Fallback returns the secondary reference currency used for unknown codes
func (t *RateTable) Fallback() valueobject.Currency { return t.fallback }

// Reference returns the reporting currency used in original mode
func (t *RateTable) Reference() valueobject.Currency { return t.reference }

// Rates returns all rates sorted by code
func (t *RateTable) Rates() []Rate {
	out := make([]Rate, 0, len(t.rates))
	for _, r := range t.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Has reports whether code has a usable rate in mode
func (t *RateTable) Has(code valueobject.Currency, mode Mode) bool {
	_, ok := t.lookup(code, mode)
	return ok
}

func (t *RateTable) lookup(code valueobject.Currency, mode Mode) (decimal.Decimal, bool) {
	if code == t.base {
		return one, true
	}
	r, ok := t.rates[code]
	if !ok {
		return decimal.Zero, false
	}
	v := r.Fixed
	if mode == ModeFloating {
		v = r.Floating
	}
	if !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

// rate resolves a rate, falling back to the secondary reference currency.
// The returned error is a ConfigError describing the fallback, never fatal.
func (t *RateTable) rate(code valueobject.Currency, mode Mode) (decimal.Decimal, error) {
	if v, ok := t.lookup(code, mode); ok {
		return v, nil
	}
	miss := shared.NewConfigError("EXCHANGE_RATE_MISSING",
		fmt.Sprintf("No %s rate for %s; using %s", mode, code, t.fallback))
	if v, ok := t.lookup(t.fallback, mode); ok {
		return v, miss
	}
	return one, miss
}

// ConvertChecked converts amount from one currency to another.
// It reports a ConfigError when a fallback rate had to be used.
func (t *RateTable) ConvertChecked(amount decimal.Decimal, from valueobject.Currency, mode Mode, to valueobject.Currency) (decimal.Decimal, error) {
	if mode == ModeOriginal || from == to {
		return amount, nil
	}
	fromRate, errFrom := t.rate(from, mode)
	toRate, errTo := t.rate(to, mode)
	result := amount.Div(fromRate).Mul(toRate)
	if errFrom != nil {
		return result, errFrom
	}
	return result, errTo
}

// Convert is ConvertChecked with the fallback error discarded
func (t *RateTable) Convert(amount decimal.Decimal, from valueobject.Currency, mode Mode, to valueobject.Currency) decimal.Decimal {
	v, _ := t.ConvertChecked(amount, from, mode, to)
	return v
}

// ConvertFixed converts in fixed mode; receipts in a foreign currency use it
func (t *RateTable) ConvertFixed(amount decimal.Decimal, from, to valueobject.Currency) decimal.Decimal {
	return t.Convert(amount, from, ModeFixed, to)
}

// Target returns the currency reports are expressed in for the mode
func (t *RateTable) Target(mode Mode, requested valueobject.Currency) valueobject.Currency {
	if mode == ModeOriginal {
		return t.reference
	}
	if requested != "" {
		return requested
	}
	return t.base
}
