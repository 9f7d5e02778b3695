package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelViewMode   = "view_mode"
)

// Operation names used as profiling labels.
const (
	OperationApplyReceipt   = "apply_receipt"
	OperationOverrideStatus = "override_status"
	OperationDashboardQuery = "dashboard_query"
	OperationDashboardXLSX  = "dashboard_export"
	OperationRateReload     = "rate_reload"
)

// MaxLabelValueLength caps label values to keep profile cardinality bounded.
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped by sanitizeLabels. Do not modify at runtime.
var HighCardinalityLabels = map[string]bool{
	"user_id":        true,
	"request_id":     true,
	"installment_id": true,
	"contract_id":    true,
	"receipt_id":     true,
	"trace_id":       true,
	"span_id":        true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its goroutine.
// The labels map is copied, so callers may reuse it afterwards.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if len(labels) == 0 {
		fn(ctx)
		return
	}

	labelPairs := sanitizeLabels(maps.Clone(labels))
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}

	pyroscope.TagWrapper(ctx, pyroscope.Labels(labelPairs...), fn)
}

// OperationLabels builds the label set for a named operation.
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	maps.Copy(labels, extra)
	labels[ProfilingLabelOperation] = operation
	return labels
}

// HTTPRequestLabels builds the label set for one HTTP route.
func HTTPRequestLabels(controller, route, method string) map[string]string {
	labels := map[string]string{}
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// sanitizeLabels drops empty and high-cardinality entries, truncates long values
// and returns key/value pairs in key order.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitized := sanitizeLabelKey(key)
		if sanitized == "" {
			continue
		}
		out = append(out, sanitized, value)
	}
	return out
}

// sanitizeLabelKey lowercases the key and keeps only [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}
