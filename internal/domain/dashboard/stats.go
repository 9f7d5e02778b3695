package dashboard

import (
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Stats is a rolled-up summary in the report currency
type Stats struct {
	Count     int             `json:"count"`
	SumDue    decimal.Decimal `json:"sum_due"`
	SumPaid   decimal.Decimal `json:"sum_paid"`
	SumUnpaid decimal.Decimal `json:"sum_unpaid"`
}

// ZeroStats returns empty stats
func ZeroStats() Stats {
	return Stats{SumDue: decimal.Zero, SumPaid: decimal.Zero, SumUnpaid: decimal.Zero}
}

// Accumulator collects row amounts per source currency
type Accumulator struct {
	count  int
	due    *currency.MultiCurrencyTotal
	paid   *currency.MultiCurrencyTotal
	unpaid *currency.MultiCurrencyTotal
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		due:    currency.NewMultiCurrencyTotal(),
		paid:   currency.NewMultiCurrencyTotal(),
		unpaid: currency.NewMultiCurrencyTotal(),
	}
}

// Add accumulates one row
func (a *Accumulator) Add(r *Row) {
	a.count++
	a.due.Add(r.Currency, r.AmountDue)
	a.paid.Add(r.Currency, r.AmountPaid)
	a.unpaid.Add(r.Currency, r.AmountUnpaid)
}

// Count returns the number of rows added
func (a *Accumulator) Count() int {
	return a.count
}

// DueByCurrency returns the raw due subtotals per source currency
func (a *Accumulator) DueByCurrency() map[valueobject.Currency]decimal.Decimal {
	return a.due.Subtotals()
}

// Stats converts each currency subtotal and sums them
func (a *Accumulator) Stats(conv Conversion) (Stats, []error) {
	due, m1 := a.due.Total(conv.Table, conv.Mode, conv.Target)
	paid, m2 := a.paid.Total(conv.Table, conv.Mode, conv.Target)
	unpaid, m3 := a.unpaid.Total(conv.Table, conv.Mode, conv.Target)
	misses := append(append(m1, m2...), m3...)
	return Stats{Count: a.count, SumDue: due, SumPaid: paid, SumUnpaid: unpaid}, misses
}

// Conversion is the currency setting of one evaluation pass
type Conversion struct {
	Table  *currency.RateTable
	Mode   currency.Mode
	Target valueobject.Currency
}

// NewConversion resolves the report currency for mode
func NewConversion(table *currency.RateTable, mode currency.Mode, requested valueobject.Currency) Conversion {
	return Conversion{Table: table, Mode: mode, Target: table.Target(mode, requested)}
}

// ApplyDisplay fills the display amounts of r in the report currency
func (c Conversion) ApplyDisplay(r *Row) {
	r.DisplayCurrency = c.Target
	r.DisplayDue = c.Table.Convert(r.AmountDue, r.Currency, c.Mode, c.Target)
	r.DisplayPaid = c.Table.Convert(r.AmountPaid, r.Currency, c.Mode, c.Target)
	r.DisplayUnpaid = c.Table.Convert(r.AmountUnpaid, r.Currency, c.Mode, c.Target)
}

// Summarize computes exact stats over rows
func Summarize(rows []Row, conv Conversion) (Stats, []error) {
	acc := NewAccumulator()
	for i := range rows {
		acc.Add(&rows[i])
	}
	return acc.Stats(conv)
}
