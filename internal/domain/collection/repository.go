package collection

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContractFilter holds contract-level predicates for dashboard reads
type ContractFilter struct {
	Keyword       string
	CustomerGroup string
	ActivityTag   string
	// SalesUserIDs takes precedence over OwnerUserIDs when non-empty
	SalesUserIDs []uuid.UUID
	OwnerUserIDs []uuid.UUID
	// Scope restricts to contracts owned by this user (self-only roles)
	Scope *uuid.UUID
}

// InstallmentFilter holds installment-level predicates
type InstallmentFilter struct {
	DueStart *time.Time
	DueEnd   *time.Time
}

// IsZero reports whether no predicate is set
func (f InstallmentFilter) IsZero() bool {
	return f.DueStart == nil && f.DueEnd == nil
}

// ContractReader loads contracts and their installments for reporting
type ContractReader interface {
	FindContracts(ctx context.Context, filter ContractFilter) ([]Contract, error)
	FindContractByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*Contract, error)
	FindInstallmentsByContracts(ctx context.Context, contractIDs []uuid.UUID, filter InstallmentFilter) ([]Installment, error)
}

// ReceiptPlan tells the repository how to build the receipt and when to clear
// an override, inside the reconciliation transaction.
type ReceiptPlan struct {
	Build               func(inst *Installment, contract *Contract) (*Receipt, error)
	ShouldClearOverride func(inst *Installment) bool
}

// ApplyOutcome is the committed state after a receipt is applied
type ApplyOutcome struct {
	Receipt          *Receipt
	Installment      *Installment
	Contract         *Contract
	OverrideCleared  bool
	PreviousOverride string
}

// ReceiptRepository persists receipts and their effect on installments
type ReceiptRepository interface {
	// Apply inserts the receipt and increments amount_paid atomically.
	// Returns ErrDuplicateReceipt when the creator already used the idempotency key.
	Apply(ctx context.Context, installmentID uuid.UUID, scope *uuid.UUID, plan ReceiptPlan) (*ApplyOutcome, error)
	FindByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*Receipt, error)
	// FindByIdempotencyKey looks a key up among the receipts of one creator
	FindByIdempotencyKey(ctx context.Context, createdBy uuid.UUID, key string) (*Receipt, error)
	AppendAttachments(ctx context.Context, receiptID uuid.UUID, refs AttachmentRefs) error
	FindInstallment(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*Installment, *Contract, error)
}

// StatusOverrideRepository changes installment overrides with an audit trail
type StatusOverrideRepository interface {
	SetInstallmentOverride(ctx context.Context, log *StatusOverrideLog, scope *uuid.UUID) (*Installment, error)
	ListLogs(ctx context.Context, entityID uuid.UUID) ([]StatusOverrideLog, error)
}
