package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for business metrics.
const MeterName = "receivables"

// Metric attribute keys.
var (
	AttrMethod     = attribute.Key("method")
	AttrOutcome    = attribute.Key("outcome")
	AttrErrorKind  = attribute.Key("error_kind")
	AttrCurrency   = attribute.Key("currency")
	AttrEntityType = attribute.Key("entity_type")
	AttrAction     = attribute.Key("action")
	AttrViewMode   = attribute.Key("view_mode")
)

// ReceivablesMetrics holds the business instruments of the reconciliation service.
// All methods are safe on a nil receiver.
type ReceivablesMetrics struct {
	receiptsApplied    *Counter
	receiptFailures    *Counter
	receiptAmount      *Histogram
	overrideChanges    *Counter
	attachmentFailures *Counter
	rateFallbacks      *Counter
	queryDuration      *Histogram
	queryRows          *Histogram
}

// NewReceivablesMetrics registers the instruments on meter.
func NewReceivablesMetrics(meter metric.Meter) (*ReceivablesMetrics, error) {
	var (
		m   ReceivablesMetrics
		err error
	)
	if m.receiptsApplied, err = NewCounter(meter, "receivables_receipts_applied_total",
		"Receipts applied to installments", "{receipt}"); err != nil {
		return nil, err
	}
	if m.receiptFailures, err = NewCounter(meter, "receivables_receipt_failures_total",
		"Receipt applications that failed", "{receipt}"); err != nil {
		return nil, err
	}
	if m.receiptAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "receivables_receipt_amount",
		Description: "Applied receipt amounts in the contract currency",
		Unit:        "1",
		Boundaries:  []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
	}); err != nil {
		return nil, err
	}
	if m.overrideChanges, err = NewCounter(meter, "receivables_status_override_changes_total",
		"Manual status override changes including automatic clears", "{change}"); err != nil {
		return nil, err
	}
	if m.attachmentFailures, err = NewCounter(meter, "receivables_attachment_failures_total",
		"Attachment uploads that failed after the receipt committed", "{file}"); err != nil {
		return nil, err
	}
	if m.rateFallbacks, err = NewCounter(meter, "receivables_rate_fallbacks_total",
		"Conversions that used the fallback currency rate", "{conversion}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "receivables_dashboard_query_duration_seconds",
		Description: "Dashboard query latency",
		Unit:        "s",
		Boundaries:  []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}); err != nil {
		return nil, err
	}
	if m.queryRows, err = NewHistogram(meter, HistogramOpts{
		Name:        "receivables_dashboard_query_rows",
		Description: "Rows matched by a dashboard query before paging",
		Unit:        "{row}",
		Boundaries:  []float64{10, 50, 100, 500, 1000, 5000, 10000},
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReceiptApplied records a successful application or an idempotent replay.
func (m *ReceivablesMetrics) ReceiptApplied(ctx context.Context, method, currency string, amount float64, replayed bool) {
	if m == nil {
		return
	}
	outcome := "applied"
	if replayed {
		outcome = "replayed"
	}
	m.receiptsApplied.Inc(ctx, AttrMethod.String(method), AttrOutcome.String(outcome))
	if !replayed {
		m.receiptAmount.Record(ctx, amount, AttrCurrency.String(currency))
	}
}

// ReceiptFailed records a rejected or failed application.
func (m *ReceivablesMetrics) ReceiptFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.receiptFailures.Inc(ctx, AttrErrorKind.String(kind))
}

// OverrideChanged records a set, clear or automatic clear of a status override.
func (m *ReceivablesMetrics) OverrideChanged(ctx context.Context, entityType, action string) {
	if m == nil {
		return
	}
	m.overrideChanges.Inc(ctx, AttrEntityType.String(entityType), AttrAction.String(action))
}

// AttachmentFailed records an attachment upload failure.
func (m *ReceivablesMetrics) AttachmentFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.attachmentFailures.Inc(ctx)
}

// RateFallback records a conversion that used the fallback rate.
func (m *ReceivablesMetrics) RateFallback(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	m.rateFallbacks.Inc(ctx, AttrCurrency.String(currency))
}

// DashboardQueried records the latency and size of one dashboard query.
func (m *ReceivablesMetrics) DashboardQueried(ctx context.Context, viewMode string, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.queryDuration.RecordDuration(ctx, d, AttrViewMode.String(viewMode))
	m.queryRows.Record(ctx, float64(rows), AttrViewMode.String(viewMode))
}
