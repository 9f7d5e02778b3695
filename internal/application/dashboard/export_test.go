package dashboard

import (
	"bytes"
	"context"
	"testing"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestExport(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Export(finance(), QueryRequest{ViewMode: "installment", SortBy: "creation-time", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, "receivables_20240615_090000.xlsx", res.FileName)

	book, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(rowsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, exportHeaders, rows[0])

	// first contract by creation time, its two installments
	assert.Equal(t, f.paid.ContractNumber, rows[1][0])
	assert.Equal(t, "Alice", rows[1][4])
	assert.Equal(t, "CNY", rows[1][9])

	statuses := map[string]bool{}
	for _, r := range rows[1:] {
		statuses[r[8]] = true
	}
	assert.True(t, statuses[collection.LabelOverdue])
	assert.True(t, statuses[collection.LabelPartiallyPaid])

	summary, err := book.GetRows(summarySheet)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range summary {
		if len(r) == 2 {
			values[r[0]] = r[1]
		}
	}
	p := message.NewPrinter(language.English)
	assert.Equal(t, "4", values["Rows"])
	assert.Equal(t, p.Sprintf("%.2f", 3500.0), values["Total due"])
	assert.Equal(t, p.Sprintf("%.2f", 2300.0), values["Total unpaid"])
	assert.Equal(t, "CNY (fixed)", values["Currency"])
}

func TestExport_Empty(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Export(finance(), QueryRequest{Filters: QueryFilters{Keyword: "nobody"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)

	book, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(rowsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExport_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Export(context.Background(), QueryRequest{})
	assert.True(t, shared.IsKind(err, shared.KindPermission))

	_, err = f.svc.Export(finance(), QueryRequest{SortBy: "amount"})
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}
