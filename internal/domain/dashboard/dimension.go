package dashboard

import (
	"fmt"
	"strings"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
)

// Dimension is a grouping key
type Dimension string

const (
	DimensionSettlementStatus Dimension = "settlement-status"
	DimensionStatus           Dimension = "status"
	DimensionCreationMonth    Dimension = "creation-month"
	DimensionReceiptMonth     Dimension = "receipt-month"
	DimensionSalesOwner       Dimension = "sales-owner"
	DimensionAccountOwner     Dimension = "account-owner"
	DimensionPaymentMethod    Dimension = "payment-method"
)

// Unassigned labels the bucket for rows without a usable dimension value
const Unassigned = "unassigned"

// MaxDimensions is the deepest supported nesting
const MaxDimensions = 2

var knownDimensions = map[Dimension]bool{
	DimensionSettlementStatus: true,
	DimensionStatus:           true,
	DimensionCreationMonth:    true,
	DimensionReceiptMonth:     true,
	DimensionSalesOwner:       true,
	DimensionAccountOwner:     true,
	DimensionPaymentMethod:    true,
}

// ParseDimensions validates a group-by list
func ParseDimensions(keys []string) ([]Dimension, error) {
	if len(keys) > MaxDimensions {
		return nil, shared.NewValidationError("INVALID_GROUP_BY",
			fmt.Sprintf("At most %d grouping dimensions are supported", MaxDimensions))
	}
	dims := make([]Dimension, 0, len(keys))
	seen := make(map[Dimension]bool, len(keys))
	for _, k := range keys {
		dim := Dimension(strings.ToLower(strings.TrimSpace(k)))
		if !knownDimensions[dim] {
			return nil, shared.NewValidationError("INVALID_GROUP_BY", fmt.Sprintf("Unknown grouping dimension %q", k))
		}
		if seen[dim] {
			return nil, shared.NewValidationError("INVALID_GROUP_BY", fmt.Sprintf("Dimension %q is listed twice", k))
		}
		seen[dim] = true
		dims = append(dims, dim)
	}
	return dims, nil
}

// Bucket is a dimension value: a stable key and a display label
type Bucket struct {
	Key   string
	Label string
}

var unassignedBucket = Bucket{Key: Unassigned, Label: Unassigned}

// Extract returns the bucket a row falls into
func (dim Dimension) Extract(r *Row) Bucket {
	switch dim {
	case DimensionSettlementStatus:
		label := settlementLabel(r)
		return Bucket{Key: label, Label: label}
	case DimensionStatus:
		return labelBucket(r.Status.Label)
	case DimensionCreationMonth:
		if r.CreatedAt.IsZero() {
			return unassignedBucket
		}
		return labelBucket(r.CreatedAt.Format("2006-01"))
	case DimensionReceiptMonth:
		if r.LastReceiptAt == nil {
			return unassignedBucket
		}
		return labelBucket(r.LastReceiptAt.Format("2006-01"))
	case DimensionSalesOwner:
		if r.SalesOwnerID == uuid.Nil {
			return unassignedBucket
		}
		return ownerBucket(r.SalesOwnerID.String(), r.SalesOwnerName)
	case DimensionAccountOwner:
		if r.AccountOwnerID == nil {
			return unassignedBucket
		}
		return ownerBucket(r.AccountOwnerID.String(), r.AccountOwnerName)
	case DimensionPaymentMethod:
		return labelBucket(string(r.LastReceiptMethod))
	}
	return unassignedBucket
}

func labelBucket(v string) Bucket {
	v = strings.TrimSpace(v)
	if v == "" {
		return unassignedBucket
	}
	return Bucket{Key: v, Label: v}
}

func ownerBucket(id, name string) Bucket {
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	return Bucket{Key: id, Label: name}
}

func settlementLabel(r *Row) string {
	if r.ContractState == collection.ContractStateVoid {
		return collection.LabelVoid
	}
	if r.AmountDue.IsPositive() && r.AmountDue.Sub(r.AmountPaid).LessThanOrEqual(collection.Epsilon) {
		return collection.LabelSettled
	}
	return collection.LabelUnsettled
}
