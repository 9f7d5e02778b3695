package collection

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how money was received
type PaymentMethod string

const (
	PaymentMethodUnspecified  PaymentMethod = ""
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodWechat       PaymentMethod = "wechat"
	PaymentMethodAlipay       PaymentMethod = "alipay"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is known. Unspecified is allowed.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodUnspecified, PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodCard, PaymentMethodWechat, PaymentMethodAlipay, PaymentMethodOther:
		return true
	}
	return false
}

// ErrDuplicateReceipt is returned when an idempotency key was already used
var ErrDuplicateReceipt = &shared.DomainError{
	Kind:    shared.KindConflict,
	Code:    "DUPLICATE_RECEIPT",
	Message: "A receipt with this idempotency key already exists",
}

// ErrIdempotencyKeyReused is returned when a key already recorded a receipt
// for a different installment, amount or currency
var ErrIdempotencyKeyReused = &shared.DomainError{
	Kind:    shared.KindConflict,
	Code:    "IDEMPOTENCY_KEY_REUSED",
	Message: "This idempotency key was already used for a different receipt; use a new key",
}

// AttachmentRef points at a voucher held by the attachment store
type AttachmentRef struct {
	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

// AttachmentRefs implements GORM Scanner/Valuer for JSONB storage
type AttachmentRefs []AttachmentRef

// Value implements driver.Valuer
func (a AttachmentRefs) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *AttachmentRefs) Scan(value interface{}) error {
	if value == nil {
		*a = AttachmentRefs{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AttachmentRefs: unsupported type")
	}

	if len(bytes) == 0 {
		*a = AttachmentRefs{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Receipt is an immutable record of money received against an installment.
// AmountReceived is in Currency; AppliedAmount is in the contract currency.
type Receipt struct {
	shared.BaseEntity
	InstallmentID  uuid.UUID            `json:"installment_id"`
	ContractID     uuid.UUID            `json:"contract_id"`
	AmountReceived decimal.Decimal      `json:"amount_received"`
	AppliedAmount  decimal.Decimal      `json:"applied_amount"`
	Currency       valueobject.Currency `json:"currency"`
	ReceivedDate   time.Time            `json:"received_date"`
	Method         PaymentMethod        `json:"method"`
	CollectorID    *uuid.UUID           `json:"collector_id"`
	Note           string               `json:"note"`
	Attachments    AttachmentRefs       `json:"attachments"`
	IdempotencyKey *string              `json:"idempotency_key,omitempty"`
	CreatedBy      uuid.UUID            `json:"created_by"`
}

// AmountConverter converts an amount between two currencies
type AmountConverter interface {
	ConvertFixed(amount decimal.Decimal, from, to valueobject.Currency) decimal.Decimal
}

// ReceiptDraft carries operator input for a new receipt
type ReceiptDraft struct {
	Amount         *decimal.Decimal
	ReceivedDate   time.Time
	Method         PaymentMethod
	CollectorID    *uuid.UUID
	Currency       valueobject.Currency
	Note           string
	IdempotencyKey string
	CreatedBy      uuid.UUID
}

// Validate checks the draft fields that do not depend on the installment
func (d ReceiptDraft) Validate() error {
	if d.ReceivedDate.IsZero() {
		return shared.NewValidationError("INVALID_RECEIVED_DATE", "Received date is required")
	}
	if !d.Method.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(d.Method))
	}
	if d.Currency != "" && !d.Currency.IsValid() {
		return shared.NewValidationError("INVALID_CURRENCY", "Invalid currency code: "+string(d.Currency))
	}
	if d.Amount != nil && !d.Amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Receipt amount must be greater than zero")
	}
	return nil
}

// NewReceipt builds a receipt against the installment's current balance.
// An omitted amount defaults to the outstanding unpaid amount.
func NewReceipt(inst *Installment, contractCurrency valueobject.Currency, draft ReceiptDraft, conv AmountConverter) (*Receipt, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	currency := draft.Currency
	if currency == "" {
		currency = contractCurrency
	}

	var received, applied decimal.Decimal
	if draft.Amount != nil {
		received = *draft.Amount
		applied = received
		if currency != contractCurrency {
			applied = conv.ConvertFixed(received, currency, contractCurrency)
		}
	} else {
		applied = inst.AmountUnpaid()
		received = applied
		if currency != contractCurrency {
			received = conv.ConvertFixed(applied, contractCurrency, currency)
		}
	}
	if !applied.IsPositive() || !received.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT",
			"Receipt amount must be greater than zero; the installment has nothing outstanding")
	}

	r := &Receipt{
		BaseEntity:     shared.NewBaseEntity(),
		InstallmentID:  inst.ID,
		ContractID:     inst.ContractID,
		AmountReceived: received,
		AppliedAmount:  applied,
		Currency:       currency,
		ReceivedDate:   draft.ReceivedDate,
		Method:         draft.Method,
		CollectorID:    draft.CollectorID,
		Note:           strings.TrimSpace(draft.Note),
		Attachments:    AttachmentRefs{},
		CreatedBy:      draft.CreatedBy,
	}
	if key := strings.TrimSpace(draft.IdempotencyKey); key != "" {
		r.IdempotencyKey = &key
	}
	return r, nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// Matches reports whether draft, submitted for installmentID, asks for the
// same receipt as r. An omitted amount or currency matches any stored value.
func (r *Receipt) Matches(installmentID uuid.UUID, draft ReceiptDraft) bool {
	if r.InstallmentID != installmentID {
		return false
	}
	if draft.Amount != nil && !draft.Amount.Equal(r.AmountReceived) {
		return false
	}
	if draft.Currency != "" && draft.Currency != r.Currency {
		return false
	}
	return true
}
