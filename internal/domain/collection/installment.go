package collection

import (
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is one scheduled payment obligation within a contract.
// AmountPaid only grows, and only through receipt reconciliation.
type Installment struct {
	shared.BaseAggregateRoot
	ContractID        uuid.UUID       `json:"contract_id"`
	Sequence          int             `json:"sequence"`
	AmountDue         decimal.Decimal `json:"amount_due"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	DueDate           *time.Time      `json:"due_date"`
	StatusOverride    string          `json:"status_override"`
	LastReceiptAt     *time.Time      `json:"last_receipt_at"`
	LastReceiptMethod PaymentMethod   `json:"last_receipt_method"`
	LastCollectorID   *uuid.UUID      `json:"last_collector_id"`
}

// AmountUnpaid returns max(0, due - paid)
func (i *Installment) AmountUnpaid() decimal.Decimal {
	unpaid := i.AmountDue.Sub(i.AmountPaid)
	if unpaid.IsNegative() {
		return decimal.Zero
	}
	return unpaid
}

// HasOverride reports whether an operator override is in effect
func (i *Installment) HasOverride() bool {
	return trimmed(i.StatusOverride) != ""
}

// ShouldClearOverride reports whether reconciliation must drop the override.
// A naturally paid installment resumes automatic derivation.
func (i *Installment) ShouldClearOverride(ev StatusEvaluator) bool {
	return i.HasOverride() && ev.NaturalInstallment(i).Label == LabelPaid
}
