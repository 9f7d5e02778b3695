package dashboard

import (
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ViewMode selects the row shape of a dashboard query
type ViewMode string

const (
	ViewModeContract     ViewMode = "contract"
	ViewModeInstallment  ViewMode = "installment"
	ViewModeStaffSummary ViewMode = "staff_summary"
)

// ParseViewMode parses a view mode, defaulting to contract
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewModeContract:
		return ViewModeContract, nil
	case ViewModeInstallment:
		return ViewModeInstallment, nil
	case ViewModeStaffSummary:
		return ViewModeStaffSummary, nil
	}
	return "", shared.NewValidationError("INVALID_VIEW_MODE", "View mode must be contract, installment or staff_summary")
}

// Row is one dashboard line. Amounts are in Currency; Display amounts are
// converted to the report currency.
type Row struct {
	Key               string                   `json:"key"`
	ContractID        uuid.UUID                `json:"contract_id"`
	InstallmentID     *uuid.UUID               `json:"installment_id,omitempty"`
	ContractNumber    string                   `json:"contract_number"`
	CustomerName      string                   `json:"customer_name"`
	CustomerGroup     string                   `json:"customer_group"`
	ActivityTag       string                   `json:"activity_tag"`
	SalesOwnerID      uuid.UUID                `json:"sales_owner_id"`
	SalesOwnerName    string                   `json:"sales_owner_name"`
	AccountOwnerID    *uuid.UUID               `json:"account_owner_id,omitempty"`
	AccountOwnerName  string                   `json:"account_owner_name,omitempty"`
	ContractState     collection.ContractState `json:"contract_state"`
	ContractStatus    collection.Status        `json:"contract_status"`
	Status            collection.Status        `json:"status"`
	Sequence          int                      `json:"sequence,omitempty"`
	DueDate           *time.Time               `json:"due_date,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	LastReceiptAt     *time.Time               `json:"last_receipt_at,omitempty"`
	LastReceiptMethod collection.PaymentMethod `json:"last_receipt_method,omitempty"`
	ChildCount        int                      `json:"child_count,omitempty"`
	Currency          valueobject.Currency     `json:"currency"`
	AmountDue         decimal.Decimal          `json:"amount_due"`
	AmountPaid        decimal.Decimal          `json:"amount_paid"`
	AmountUnpaid      decimal.Decimal          `json:"amount_unpaid"`
	DisplayCurrency   valueobject.Currency     `json:"display_currency"`
	DisplayDue        decimal.Decimal          `json:"display_due"`
	DisplayPaid       decimal.Decimal          `json:"display_paid"`
	DisplayUnpaid     decimal.Decimal          `json:"display_unpaid"`
}

// InstallmentRow builds a flat installment row
func InstallmentRow(c *collection.Contract, inst *collection.Installment, ev collection.StatusEvaluator) Row {
	id := inst.ID
	r := contractBase(c, ev)
	r.Key = inst.ID.String()
	r.InstallmentID = &id
	r.Sequence = inst.Sequence
	r.DueDate = inst.DueDate
	r.Status = ev.Installment(inst)
	r.LastReceiptAt = inst.LastReceiptAt
	r.LastReceiptMethod = inst.LastReceiptMethod
	r.AmountDue = inst.AmountDue
	r.AmountPaid = inst.AmountPaid
	r.AmountUnpaid = inst.AmountUnpaid()
	return r
}

// ContractRow rolls installments up into a contract row. The row status is
// the most urgent installment status; the latest receipt wins for receipt fields.
func ContractRow(c *collection.Contract, installments []collection.Installment, ev collection.StatusEvaluator) Row {
	r := contractBase(c, ev)
	r.Key = c.ID.String()
	r.ChildCount = len(installments)
	r.Status = r.ContractStatus
	for i := range installments {
		inst := &installments[i]
		r.AmountDue = r.AmountDue.Add(inst.AmountDue)
		r.AmountPaid = r.AmountPaid.Add(inst.AmountPaid)
		r.AmountUnpaid = r.AmountUnpaid.Add(inst.AmountUnpaid())
		if s := ev.Installment(inst); i == 0 || s.Severity < r.Status.Severity {
			r.Status = s
		}
		if inst.LastReceiptAt != nil && (r.LastReceiptAt == nil || inst.LastReceiptAt.After(*r.LastReceiptAt)) {
			r.LastReceiptAt = inst.LastReceiptAt
			r.LastReceiptMethod = inst.LastReceiptMethod
		}
	}
	if c.IsVoid() || strings.TrimSpace(c.StatusOverride) != "" {
		r.Status = r.ContractStatus
	}
	return r
}

func contractBase(c *collection.Contract, ev collection.StatusEvaluator) Row {
	return Row{
		ContractID:       c.ID,
		ContractNumber:   c.ContractNumber,
		CustomerName:     c.CustomerName,
		CustomerGroup:    c.CustomerGroup,
		ActivityTag:      c.ActivityTag,
		SalesOwnerID:     c.SalesOwnerID,
		SalesOwnerName:   c.SalesOwnerName,
		AccountOwnerID:   c.AccountOwnerID,
		AccountOwnerName: c.AccountOwnerName,
		ContractState:    c.State,
		ContractStatus:   ev.Contract(c),
		CreatedAt:        c.CreatedAt,
		Currency:         c.Currency,
		AmountDue:        decimal.Zero,
		AmountPaid:       decimal.Zero,
		AmountUnpaid:     decimal.Zero,
	}
}
