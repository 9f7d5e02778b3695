package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
)

// SortKey is the single active sort column
type SortKey string

const (
	SortByCreationTime   SortKey = "creation-time"
	SortByReceiptTime    SortKey = "receipt-time"
	SortByStatusSeverity SortKey = "status-severity"
)

// SortDir is the sort direction
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSort validates a sort key and direction. Defaults are creation-time desc.
func ParseSort(key, dir string) (SortKey, SortDir, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	switch k {
	case "":
		k = SortByCreationTime
	case SortByCreationTime, SortByReceiptTime, SortByStatusSeverity:
	default:
		return "", "", shared.NewValidationError("INVALID_SORT_KEY",
			"Sort key must be creation-time, receipt-time or status-severity")
	}
	d := SortDir(strings.ToLower(strings.TrimSpace(dir)))
	switch d {
	case "":
		d = SortDesc
	case SortAsc, SortDesc:
	default:
		return "", "", shared.NewValidationError("INVALID_SORT_DIR", "Sort direction must be asc or desc")
	}
	return k, d, nil
}

// SortRows sorts rows in place. Equal rows keep their incoming order, and
// rows without a receipt time sort last in both directions.
func SortRows(rows []Row, key SortKey, dir SortDir) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareRows(&rows[i], &rows[j], key)
		if dir == SortDesc {
			if key == SortByReceiptTime && (rows[i].LastReceiptAt == nil) != (rows[j].LastReceiptAt == nil) {
				return c < 0
			}
			return c > 0
		}
		return c < 0
	})
}

func compareRows(a, b *Row, key SortKey) int {
	switch key {
	case SortByStatusSeverity:
		return a.Status.Severity - b.Status.Severity
	case SortByReceiptTime:
		return compareOptionalTime(a.LastReceiptAt, b.LastReceiptAt)
	default:
		return compareTime(a.CreatedAt, b.CreatedAt)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// compareOptionalTime orders nil after any value
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return compareTime(*a, *b)
}
