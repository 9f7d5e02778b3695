package dashboard

import (
	"sort"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/google/uuid"
)

// StaffSummaryRows collapses rows into one row per sales owner.
// Amounts are converted per currency before summing; the result is
// expressed in the report currency.
func StaffSummaryRows(rows []Row, conv Conversion) ([]Row, []error) {
	type owner struct {
		id   uuid.UUID
		name string
		acc  *Accumulator
		last *Row
	}
	index := make(map[uuid.UUID]*owner)
	var order []*owner
	for i := range rows {
		r := &rows[i]
		o, ok := index[r.SalesOwnerID]
		if !ok {
			o = &owner{id: r.SalesOwnerID, name: r.SalesOwnerName, acc: NewAccumulator()}
			index[r.SalesOwnerID] = o
			order = append(order, o)
		}
		o.acc.Add(r)
		if r.LastReceiptAt != nil && (o.last == nil || r.LastReceiptAt.After(*o.last.LastReceiptAt)) {
			o.last = r
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].name < order[j].name })

	out := make([]Row, 0, len(order))
	var misses []error
	for _, o := range order {
		s, m := o.acc.Stats(conv)
		misses = append(misses, m...)
		row := Row{
			Key:             "staff:" + o.id.String(),
			SalesOwnerID:    o.id,
			SalesOwnerName:  o.name,
			ChildCount:      s.Count,
			Status:          collection.NewStatus(""),
			Currency:        conv.Target,
			AmountDue:       s.SumDue,
			AmountPaid:      s.SumPaid,
			AmountUnpaid:    s.SumUnpaid,
			DisplayCurrency: conv.Target,
			DisplayDue:      s.SumDue,
			DisplayPaid:     s.SumPaid,
			DisplayUnpaid:   s.SumUnpaid,
		}
		if o.last != nil {
			row.LastReceiptAt = o.last.LastReceiptAt
			row.LastReceiptMethod = o.last.LastReceiptMethod
		}
		out = append(out, row)
	}
	return out, misses
}
