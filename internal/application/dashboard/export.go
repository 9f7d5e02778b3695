package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/receivables/internal/domain/dashboard"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxExportRows caps the rows written to one workbook
const MaxExportRows = 20000

// XLSXContentType is the MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	rowsSheet    = "Receivables"
	summarySheet = "Summary"
	moneyFormat  = "#,##0.00"
)

// ExportResult is a rendered workbook
type ExportResult struct {
	FileName string
	Data     []byte
	Rows     int
}

var exportHeaders = []string{
	"Contract", "Customer", "Customer group", "Activity", "Sales owner", "Account owner",
	"Installment", "Due date", "Status", "Currency", "Amount due", "Amount paid", "Amount unpaid",
	"Report currency", "Due (report)", "Paid (report)", "Unpaid (report)", "Last receipt", "Method",
}

// Export renders every row matching req into an xlsx workbook.
// Pages are pulled through a Controller so export and the UI share one fetch path.
func (s *QueryService) Export(ctx context.Context, req QueryRequest) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, telemetry.OperationDashboardXLSX)
	defer span.End()

	var (
		result *ExportResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationDashboardXLSX, nil), func(ctx context.Context) {
		result, err = s.export(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, result.Rows)
	return result, nil
}

func (s *QueryService) export(ctx context.Context, req QueryRequest) (*ExportResult, error) {
	req.GroupBy = nil
	var last *QueryResponse
	ctrl := NewController(func(ctx context.Context, r QueryRequest) (*QueryResponse, error) {
		resp, err := s.Query(ctx, r)
		if err != nil {
			return nil, err
		}
		if resp.Total > MaxExportRows {
			return nil, shared.NewValidationError("EXPORT_TOO_LARGE",
				fmt.Sprintf("Export is limited to %d rows; narrow the filters", MaxExportRows))
		}
		last = resp
		return resp, nil
	}, MaxPerPage)

	if err := ctrl.SetFilters(ctx, req); err != nil {
		return nil, err
	}
	if err := ctrl.LoadAll(ctx); err != nil {
		return nil, err
	}

	rows := ctrl.Rows()
	data, err := renderWorkbook(rows, last, s.now())
	if err != nil {
		return nil, shared.NewTransientError("Failed to render export", err)
	}
	return &ExportResult{
		FileName: fmt.Sprintf("receivables_%s.xlsx", s.now().Format("20060102_150405")),
		Data:     data,
		Rows:     len(rows),
	}, nil
}

func renderWorkbook(rows []dashboard.Row, last *QueryResponse, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	numFmt := moneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(rowsSheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(rowsSheet, "A1", lastHeader, header); err != nil {
		return nil, err
	}

	for i := range rows {
		if err := writeRow(f, i+2, &rows[i]); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		first, _ := excelize.CoordinatesToCellName(11, 2)
		end, _ := excelize.CoordinatesToCellName(17, len(rows)+1)
		if err := f.SetCellStyle(rowsSheet, first, end, moneyStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(rowsSheet, "A", "S", 16); err != nil {
		return nil, err
	}

	if last != nil {
		if err := writeSummary(f, last, generatedAt); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, n int, r *dashboard.Row) error {
	values := []any{
		r.ContractNumber,
		r.CustomerName,
		r.CustomerGroup,
		r.ActivityTag,
		r.SalesOwnerName,
		r.AccountOwnerName,
		sequenceCell(r),
		dateCell(r.DueDate),
		r.Status.Label,
		r.Currency.String(),
		money(r.AmountDue),
		money(r.AmountPaid),
		money(r.AmountUnpaid),
		r.DisplayCurrency.String(),
		money(r.DisplayDue),
		money(r.DisplayPaid),
		money(r.DisplayUnpaid),
		dateCell(r.LastReceiptAt),
		string(r.LastReceiptMethod),
	}
	cell, _ := excelize.CoordinatesToCellName(1, n)
	return f.SetSheetRow(rowsSheet, cell, &values)
}

func writeSummary(f *excelize.File, resp *QueryResponse, generatedAt time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	lines := [][]any{
		{"Generated at", generatedAt.Format(time.RFC3339)},
		{"View", resp.ViewMode},
		{"Currency", fmt.Sprintf("%s (%s)", resp.Currency, resp.CurrencyMode)},
		{"Rows", p.Sprintf("%d", resp.Summary.Count)},
		{"Total due", p.Sprintf("%.2f", money(resp.Summary.SumDue))},
		{"Total paid", p.Sprintf("%.2f", money(resp.Summary.SumPaid))},
		{"Total unpaid", p.Sprintf("%.2f", money(resp.Summary.SumUnpaid))},
	}
	for _, w := range resp.RateWarnings {
		lines = append(lines, []any{"Rate warning", w})
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func sequenceCell(r *dashboard.Row) any {
	if r.InstallmentID == nil {
		return ""
	}
	return r.Sequence
}
