package currency

import (
	"sort"

	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MultiCurrencyTotal accumulates amounts per source currency.
// Subtotals are converted independently and summed afterwards.
type MultiCurrencyTotal struct {
	subtotals map[valueobject.Currency]decimal.Decimal
}

// NewMultiCurrencyTotal creates an empty accumulator
func NewMultiCurrencyTotal() *MultiCurrencyTotal {
	return &MultiCurrencyTotal{subtotals: make(map[valueobject.Currency]decimal.Decimal)}
}

// Add accumulates amount in its own currency
func (m *MultiCurrencyTotal) Add(code valueobject.Currency, amount decimal.Decimal) {
	m.subtotals[code] = m.subtotals[code].Add(amount)
}

// Merge adds every subtotal of other into m
func (m *MultiCurrencyTotal) Merge(other *MultiCurrencyTotal) {
	for code, v := range other.subtotals {
		m.Add(code, v)
	}
}

// Subtotals returns a copy of the per-currency subtotals
func (m *MultiCurrencyTotal) Subtotals() map[valueobject.Currency]decimal.Decimal {
	out := make(map[valueobject.Currency]decimal.Decimal, len(m.subtotals))
	for k, v := range m.subtotals {
		out[k] = v
	}
	return out
}

// Currencies returns the source currencies in code order
func (m *MultiCurrencyTotal) Currencies() []valueobject.Currency {
	out := make([]valueobject.Currency, 0, len(m.subtotals))
	for k := range m.subtotals {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Total converts each subtotal to the target currency and sums the results.
// Fallback rate notices are returned alongside the total.
func (m *MultiCurrencyTotal) Total(t *RateTable, mode Mode, to valueobject.Currency) (decimal.Decimal, []error) {
	sum := decimal.Zero
	var misses []error
	for _, code := range m.Currencies() {
		v, err := t.ConvertChecked(m.subtotals[code], code, mode, to)
		if err != nil {
			misses = append(misses, err)
		}
		sum = sum.Add(v)
	}
	return sum, misses
}
