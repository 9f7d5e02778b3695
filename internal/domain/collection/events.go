package collection

import (
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeReceiptApplied   = "ReceiptApplied"
	EventTypeStatusOverridden = "InstallmentStatusOverridden"
	AggregateTypeInstallment  = "Installment"
)

// ReceiptAppliedEvent is raised after a receipt has been committed
type ReceiptAppliedEvent struct {
	shared.BaseDomainEvent
	ReceiptID       uuid.UUID            `json:"receipt_id"`
	InstallmentID   uuid.UUID            `json:"installment_id"`
	ContractID      uuid.UUID            `json:"contract_id"`
	AmountReceived  decimal.Decimal      `json:"amount_received"`
	AppliedAmount   decimal.Decimal      `json:"applied_amount"`
	Currency        valueobject.Currency `json:"currency"`
	AmountPaid      decimal.Decimal      `json:"amount_paid"`
	AmountUnpaid    decimal.Decimal      `json:"amount_unpaid"`
	Status          string               `json:"status"`
	OverrideCleared bool                 `json:"override_cleared"`
}

// NewReceiptAppliedEvent creates a ReceiptAppliedEvent
func NewReceiptAppliedEvent(r *Receipt, inst *Installment, status Status, overrideCleared bool) *ReceiptAppliedEvent {
	return &ReceiptAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptApplied, AggregateTypeInstallment, inst.ID, r.CreatedBy),
		ReceiptID:       r.ID,
		InstallmentID:   inst.ID,
		ContractID:      inst.ContractID,
		AmountReceived:  r.AmountReceived,
		AppliedAmount:   r.AppliedAmount,
		Currency:        r.Currency,
		AmountPaid:      inst.AmountPaid,
		AmountUnpaid:    inst.AmountUnpaid(),
		Status:          status.Label,
		OverrideCleared: overrideCleared,
	}
}

// StatusOverriddenEvent is raised when an operator sets or clears an override
type StatusOverriddenEvent struct {
	shared.BaseDomainEvent
	InstallmentID    uuid.UUID `json:"installment_id"`
	PreviousOverride string    `json:"previous_override"`
	NewOverride      string    `json:"new_override"`
	Reason           string    `json:"reason"`
}

// NewStatusOverriddenEvent creates a StatusOverriddenEvent
func NewStatusOverriddenEvent(log *StatusOverrideLog) *StatusOverriddenEvent {
	return &StatusOverriddenEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStatusOverridden, AggregateTypeInstallment, log.EntityID, log.ActorID),
		InstallmentID:    log.EntityID,
		PreviousOverride: log.PreviousOverride,
		NewOverride:      log.NewOverride,
		Reason:           log.Reason,
	}
}
