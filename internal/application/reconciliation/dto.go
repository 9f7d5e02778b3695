package reconciliation

import (
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplyReceiptRequest represents a request to record money received against an installment
type ApplyReceiptRequest struct {
	InstallmentID uuid.UUID `json:"installment_id" binding:"required"`
	// ReceivedDate accepts 2006-01-02 or RFC3339
	ReceivedDate    string              `json:"received_date" binding:"required"`
	AmountReceived  *decimal.Decimal    `json:"amount_received"`
	Method          string              `json:"method" binding:"omitempty,payment_method"`
	CollectorUserID *uuid.UUID          `json:"collector_user_id"`
	Currency        string              `json:"currency" binding:"omitempty,iso4217"`
	Note            string              `json:"note" binding:"max=2000"`
	Attachments     []AttachmentPayload `json:"attachments" binding:"omitempty,max=10,dive"`
	IdempotencyKey  string              `json:"idempotency_key" binding:"max=128"`
}

// AttachmentPayload is a voucher file sent inline; data is base64 in JSON
type AttachmentPayload struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"max=100"`
	Data        []byte `json:"data" binding:"required"`
}

// ToUpload converts the payload to an AttachmentUpload
func (p AttachmentPayload) ToUpload() AttachmentUpload {
	return AttachmentUpload{FileName: p.FileName, ContentType: p.ContentType, Data: p.Data}
}

// StatusOverrideRequest represents a request to set or clear a manual status
type StatusOverrideRequest struct {
	EntityType string    `json:"entity_type" binding:"required,oneof=contract installment"`
	EntityID   uuid.UUID `json:"entity_id" binding:"required"`
	// NewStatus is empty to clear the override
	NewStatus string `json:"new_status" binding:"max=50"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

// ReceiptResponse is the result of ApplyReceipt
type ReceiptResponse struct {
	Receipt     ReceiptDTO       `json:"receipt"`
	Installment InstallmentState `json:"installment"`
	// Replayed is true when an earlier receipt with the same idempotency key was returned
	Replayed        bool `json:"replayed"`
	OverrideCleared bool `json:"override_cleared"`
	// RollupAdvisory marks contract-level totals as client-side estimates
	RollupAdvisory     bool `json:"rollup_advisory"`
	AttachmentFailures int  `json:"attachment_failures"`
}

// ReceiptDTO represents a receipt in API responses
type ReceiptDTO struct {
	ID             uuid.UUID                  `json:"id"`
	InstallmentID  uuid.UUID                  `json:"installment_id"`
	ContractID     uuid.UUID                  `json:"contract_id"`
	AmountReceived decimal.Decimal            `json:"amount_received"`
	AppliedAmount  decimal.Decimal            `json:"applied_amount"`
	Currency       string                     `json:"currency"`
	ReceivedDate   time.Time                  `json:"received_date"`
	Method         string                     `json:"method"`
	CollectorID    *uuid.UUID                 `json:"collector_user_id,omitempty"`
	Note           string                     `json:"note,omitempty"`
	Attachments    []collection.AttachmentRef `json:"attachments"`
	CreatedBy      uuid.UUID                  `json:"created_by"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// InstallmentState is the installment after a change, with its derived status
type InstallmentState struct {
	ID             uuid.UUID       `json:"id"`
	ContractID     uuid.UUID       `json:"contract_id"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	AmountUnpaid   decimal.Decimal `json:"amount_unpaid"`
	Status         string          `json:"status"`
	Severity       int             `json:"severity"`
	StatusOverride string          `json:"status_override"`
	LastReceiptAt  *time.Time      `json:"last_receipt_at,omitempty"`
	Version        int             `json:"version"`
}

// StatusOverrideResponse is the result of UpdateStatusOverride
type StatusOverrideResponse struct {
	Installment InstallmentState `json:"installment"`
	Previous    string           `json:"previous_override"`
	Cleared     bool             `json:"cleared"`
}

// AttachmentListResponse lists a receipt's voucher references
type AttachmentListResponse struct {
	ReceiptID   uuid.UUID                  `json:"receipt_id"`
	Attachments []collection.AttachmentRef `json:"attachments"`
}

// PreviewResponse carries a short-lived preview URL
type PreviewResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToReceiptDTO converts a domain Receipt to its response form
func ToReceiptDTO(r *collection.Receipt) ReceiptDTO {
	attachments := []collection.AttachmentRef(r.Attachments)
	if attachments == nil {
		attachments = []collection.AttachmentRef{}
	}
	return ReceiptDTO{
		ID:             r.ID,
		InstallmentID:  r.InstallmentID,
		ContractID:     r.ContractID,
		AmountReceived: r.AmountReceived,
		AppliedAmount:  r.AppliedAmount,
		Currency:       r.Currency.String(),
		ReceivedDate:   r.ReceivedDate,
		Method:         string(r.Method),
		CollectorID:    r.CollectorID,
		Note:           r.Note,
		Attachments:    attachments,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
	}
}

// ToInstallmentState converts an installment and its status to the response form
func ToInstallmentState(inst *collection.Installment, status collection.Status) InstallmentState {
	return InstallmentState{
		ID:             inst.ID,
		ContractID:     inst.ContractID,
		AmountDue:      inst.AmountDue,
		AmountPaid:     inst.AmountPaid,
		AmountUnpaid:   inst.AmountUnpaid(),
		Status:         status.Label,
		Severity:       status.Severity,
		StatusOverride: inst.StatusOverride,
		LastReceiptAt:  inst.LastReceiptAt,
		Version:        inst.Version,
	}
}
