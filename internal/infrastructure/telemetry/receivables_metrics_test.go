package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestReceivablesMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewReceivablesMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.ReceiptApplied(ctx, "cash", "CNY", 1500, false)
	m.ReceiptApplied(ctx, "cash", "CNY", 1500, true)
	m.ReceiptFailed(ctx, "validation")
	m.OverrideChanged(ctx, "installment", "auto_clear")
	m.AttachmentFailed(ctx)
	m.RateFallback(ctx, "XYZ")
	m.DashboardQueried(ctx, "contract", 120*time.Millisecond, 37)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["receivables_receipts_applied_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["receivables_receipt_failures_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["receivables_status_override_changes_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["receivables_attachment_failures_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["receivables_rate_fallbacks_total"]))

	amounts, ok := got["receivables_receipt_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, amounts.DataPoints, 1)
	assert.Equal(t, uint64(1), amounts.DataPoints[0].Count, "replays must not record an amount")

	rows, ok := got["receivables_dashboard_query_rows"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, float64(37), rows.DataPoints[0].Sum)
}

func TestReceivablesMetrics_NilSafe(t *testing.T) {
	var m *ReceivablesMetrics
	assert.NotPanics(t, func() {
		m.ReceiptApplied(context.Background(), "cash", "CNY", 1, false)
		m.ReceiptFailed(context.Background(), "transient")
		m.DashboardQueried(context.Background(), "installment", time.Second, 1)
	})
}
