package models

import (
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for a sales contract.
// Rows are written by the contract service; this subsystem only reads them
// and maintains status_override.
type ContractModel struct {
	AggregateModel
	ContractNumber   string                   `gorm:"column:contract_number;type:varchar(50);not null;uniqueIndex"`
	CustomerID       uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName     string                   `gorm:"column:customer_name;type:varchar(200);not null"`
	CustomerGroup    string                   `gorm:"column:customer_group;type:varchar(100);index"`
	ActivityTag      string                   `gorm:"column:activity_tag;type:varchar(100);index"`
	SalesOwnerID     uuid.UUID                `gorm:"column:sales_owner_id;type:uuid;not null;index"`
	SalesOwnerName   string                   `gorm:"column:sales_owner_name;type:varchar(100)"`
	AccountOwnerID   *uuid.UUID               `gorm:"column:account_owner_id;type:uuid;index"`
	AccountOwnerName string                   `gorm:"column:account_owner_name;type:varchar(100)"`
	Currency         string                   `gorm:"column:currency;type:varchar(3);not null"`
	State            collection.ContractState `gorm:"column:state;type:varchar(20);not null;default:'active'"`
	StatusOverride   string                   `gorm:"column:status_override;type:varchar(50);not null;default:''"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract
func (m *ContractModel) ToDomain() *collection.Contract {
	return &collection.Contract{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ContractNumber:    m.ContractNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		CustomerGroup:     m.CustomerGroup,
		ActivityTag:       m.ActivityTag,
		SalesOwnerID:      m.SalesOwnerID,
		SalesOwnerName:    m.SalesOwnerName,
		AccountOwnerID:    m.AccountOwnerID,
		AccountOwnerName:  m.AccountOwnerName,
		Currency:          valueobject.Currency(m.Currency),
		State:             m.State,
		StatusOverride:    m.StatusOverride,
	}
}

// FromDomain populates the persistence model from a domain Contract
func (m *ContractModel) FromDomain(c *collection.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.CustomerID = c.CustomerID
	m.CustomerName = c.CustomerName
	m.CustomerGroup = c.CustomerGroup
	m.ActivityTag = c.ActivityTag
	m.SalesOwnerID = c.SalesOwnerID
	m.SalesOwnerName = c.SalesOwnerName
	m.AccountOwnerID = c.AccountOwnerID
	m.AccountOwnerName = c.AccountOwnerName
	m.Currency = c.Currency.String()
	m.State = c.State
	m.StatusOverride = c.StatusOverride
}

// ContractModelFromDomain creates a new persistence model from a domain Contract
func ContractModelFromDomain(c *collection.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// InstallmentModel is the persistence model for one scheduled payment.
// amount_paid is only ever changed with an in-place SQL increment.
type InstallmentModel struct {
	AggregateModel
	ContractID        uuid.UUID                `gorm:"column:contract_id;type:uuid;not null;uniqueIndex:idx_installment_contract_seq,priority:1"`
	Sequence          int                      `gorm:"column:sequence;not null;uniqueIndex:idx_installment_contract_seq,priority:2"`
	AmountDue         decimal.Decimal          `gorm:"column:amount_due;type:decimal(18,4);not null;default:0"`
	AmountPaid        decimal.Decimal          `gorm:"column:amount_paid;type:decimal(18,4);not null;default:0"`
	DueDate           *time.Time               `gorm:"column:due_date;type:date;index"`
	StatusOverride    string                   `gorm:"column:status_override;type:varchar(50);not null;default:''"`
	LastReceiptAt     *time.Time               `gorm:"column:last_receipt_at"`
	LastReceiptMethod collection.PaymentMethod `gorm:"column:last_receipt_method;type:varchar(30);not null;default:''"`
	LastCollectorID   *uuid.UUID               `gorm:"column:last_collector_id;type:uuid"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment
func (m *InstallmentModel) ToDomain() *collection.Installment {
	return &collection.Installment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ContractID:        m.ContractID,
		Sequence:          m.Sequence,
		AmountDue:         m.AmountDue,
		AmountPaid:        m.AmountPaid,
		DueDate:           m.DueDate,
		StatusOverride:    m.StatusOverride,
		LastReceiptAt:     m.LastReceiptAt,
		LastReceiptMethod: m.LastReceiptMethod,
		LastCollectorID:   m.LastCollectorID,
	}
}

// FromDomain populates the persistence model from a domain Installment
func (m *InstallmentModel) FromDomain(i *collection.Installment) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.ContractID = i.ContractID
	m.Sequence = i.Sequence
	m.AmountDue = i.AmountDue
	m.AmountPaid = i.AmountPaid
	m.DueDate = i.DueDate
	m.StatusOverride = i.StatusOverride
	m.LastReceiptAt = i.LastReceiptAt
	m.LastReceiptMethod = i.LastReceiptMethod
	m.LastCollectorID = i.LastCollectorID
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment
func InstallmentModelFromDomain(i *collection.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(i)
	return m
}

// ReceiptModel is the persistence model for an applied receipt.
// The unique index on (created_by, idempotency_key) is the authority for replay detection.
type ReceiptModel struct {
	BaseModel
	InstallmentID  uuid.UUID                 `gorm:"column:installment_id;type:uuid;not null;index"`
	ContractID     uuid.UUID                 `gorm:"column:contract_id;type:uuid;not null;index"`
	AmountReceived decimal.Decimal           `gorm:"column:amount_received;type:decimal(18,4);not null"`
	AppliedAmount  decimal.Decimal           `gorm:"column:applied_amount;type:decimal(18,4);not null"`
	Currency       string                    `gorm:"column:currency;type:varchar(3);not null"`
	ReceivedDate   time.Time                 `gorm:"column:received_date;not null"`
	Method         collection.PaymentMethod  `gorm:"column:method;type:varchar(30);not null;default:''"`
	CollectorID    *uuid.UUID                `gorm:"column:collector_id;type:uuid"`
	Note           string                    `gorm:"column:note;type:text"`
	Attachments    collection.AttachmentRefs `gorm:"column:attachments;type:jsonb"`
	IdempotencyKey *string                   `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex:idx_receipts_creator_idempotency_key,priority:2"`
	CreatedBy      uuid.UUID                 `gorm:"column:created_by;type:uuid;not null;uniqueIndex:idx_receipts_creator_idempotency_key,priority:1"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *ReceiptModel) ToDomain() *collection.Receipt {
	attachments := m.Attachments
	if attachments == nil {
		attachments = collection.AttachmentRefs{}
	}
	return &collection.Receipt{
		BaseEntity:     m.BaseModel.ToDomain(),
		InstallmentID:  m.InstallmentID,
		ContractID:     m.ContractID,
		AmountReceived: m.AmountReceived,
		AppliedAmount:  m.AppliedAmount,
		Currency:       valueobject.Currency(m.Currency),
		ReceivedDate:   m.ReceivedDate,
		Method:         m.Method,
		CollectorID:    m.CollectorID,
		Note:           m.Note,
		Attachments:    attachments,
		IdempotencyKey: m.IdempotencyKey,
		CreatedBy:      m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Receipt
func (m *ReceiptModel) FromDomain(r *collection.Receipt) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.InstallmentID = r.InstallmentID
	m.ContractID = r.ContractID
	m.AmountReceived = r.AmountReceived
	m.AppliedAmount = r.AppliedAmount
	m.Currency = r.Currency.String()
	m.ReceivedDate = r.ReceivedDate
	m.Method = r.Method
	m.CollectorID = r.CollectorID
	m.Note = r.Note
	m.Attachments = r.Attachments
	m.IdempotencyKey = r.IdempotencyKey
	m.CreatedBy = r.CreatedBy
}

// ReceiptModelFromDomain creates a new persistence model from a domain Receipt
func ReceiptModelFromDomain(r *collection.Receipt) *ReceiptModel {
	m := &ReceiptModel{}
	m.FromDomain(r)
	return m
}

// StatusOverrideLogModel is the append-only audit row of an override change
type StatusOverrideLogModel struct {
	BaseModel
	EntityType       collection.EntityType `gorm:"column:entity_type;type:varchar(20);not null;index:idx_override_log_entity,priority:1"`
	EntityID         uuid.UUID             `gorm:"column:entity_id;type:uuid;not null;index:idx_override_log_entity,priority:2"`
	PreviousOverride string                `gorm:"column:previous_override;type:varchar(50);not null;default:''"`
	NewOverride      string                `gorm:"column:new_override;type:varchar(50);not null;default:''"`
	Reason           string                `gorm:"column:reason;type:varchar(500);not null"`
	ActorID          uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
}

// TableName returns the table name for GORM
func (StatusOverrideLogModel) TableName() string {
	return "status_override_logs"
}

// ToDomain converts the persistence model to a domain StatusOverrideLog
func (m *StatusOverrideLogModel) ToDomain() *collection.StatusOverrideLog {
	return &collection.StatusOverrideLog{
		BaseEntity:       m.BaseModel.ToDomain(),
		EntityType:       m.EntityType,
		EntityID:         m.EntityID,
		PreviousOverride: m.PreviousOverride,
		NewOverride:      m.NewOverride,
		Reason:           m.Reason,
		ActorID:          m.ActorID,
	}
}

// StatusOverrideLogModelFromDomain creates a new persistence model from a domain log entry
func StatusOverrideLogModelFromDomain(l *collection.StatusOverrideLog) *StatusOverrideLogModel {
	m := &StatusOverrideLogModel{
		EntityType:       l.EntityType,
		EntityID:         l.EntityID,
		PreviousOverride: l.PreviousOverride,
		NewOverride:      l.NewOverride,
		Reason:           l.Reason,
		ActorID:          l.ActorID,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
