package models

import (
	"testing"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestModels_TableNames(t *testing.T) {
	assert.Equal(t, "contracts", ContractModel{}.TableName())
	assert.Equal(t, "installments", InstallmentModel{}.TableName())
	assert.Equal(t, "receipts", ReceiptModel{}.TableName())
	assert.Equal(t, "status_override_logs", StatusOverrideLogModel{}.TableName())
	assert.Equal(t, "saved_views", SavedViewModel{}.TableName())
	assert.Equal(t, "exchange_rates", ExchangeRateModel{}.TableName())
}

func TestContractModel_RoundTrip(t *testing.T) {
	owner := uuid.New()
	c := &collection.Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    "HT-2024-001",
		CustomerID:        uuid.New(),
		CustomerName:      "Acme",
		SalesOwnerID:      uuid.New(),
		SalesOwnerName:    "Li",
		AccountOwnerID:    &owner,
		Currency:          valueobject.USD,
		State:             collection.ContractStateActive,
		StatusOverride:    "Collections",
	}

	got := ContractModelFromDomain(c).ToDomain()

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Version, got.Version)
	assert.Equal(t, c.ContractNumber, got.ContractNumber)
	assert.Equal(t, valueobject.USD, got.Currency)
	assert.Equal(t, &owner, got.AccountOwnerID)
	assert.Equal(t, "Collections", got.StatusOverride)
}

func TestInstallmentModel_ToDomain(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &InstallmentModel{
		AggregateModel: AggregateModel{BaseModel: BaseModel{ID: uuid.New()}, Version: 3},
		ContractID:     uuid.New(),
		Sequence:       2,
		AmountDue:      decimal.NewFromInt(1000),
		AmountPaid:     decimal.NewFromInt(400),
		DueDate:        &due,
	}

	inst := m.ToDomain()

	assert.Equal(t, m.ID, inst.ID)
	assert.Equal(t, 3, inst.Version)
	assert.Equal(t, 2, inst.Sequence)
	assert.True(t, inst.AmountUnpaid().Equal(decimal.NewFromInt(600)))
	assert.Equal(t, &due, inst.DueDate)
}

func TestReceiptModel_ToDomain_NilAttachments(t *testing.T) {
	key := "key-1"
	m := &ReceiptModel{
		BaseModel:      BaseModel{ID: uuid.New()},
		AmountReceived: decimal.NewFromInt(10),
		AppliedAmount:  decimal.NewFromInt(70),
		Currency:       "USD",
		IdempotencyKey: &key,
	}

	r := m.ToDomain()

	assert.NotNil(t, r.Attachments)
	assert.Empty(t, r.Attachments)
	assert.Equal(t, valueobject.USD, r.Currency)
	assert.Equal(t, &key, r.IdempotencyKey)
}

func TestStatusOverrideLogModel_RoundTrip(t *testing.T) {
	l := collection.NewStatusOverrideLog(collection.EntityTypeInstallment, uuid.New(), "", "Collections", "called twice", uuid.New())

	got := StatusOverrideLogModelFromDomain(l).ToDomain()

	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, l.EntityID, got.EntityID)
	assert.Equal(t, "Collections", got.NewOverride)
	assert.Equal(t, "called twice", got.Reason)
}

func TestExchangeRateModel_RoundTrip(t *testing.T) {
	r := currency.Rate{Code: valueobject.USD, Fixed: decimal.RequireFromString("0.14"), Floating: decimal.RequireFromString("0.138")}

	got := ExchangeRateModelFromDomain(r).ToDomain()

	assert.Equal(t, r.Code, got.Code)
	assert.True(t, r.Fixed.Equal(got.Fixed))
	assert.True(t, r.Floating.Equal(got.Floating))
	assert.False(t, got.IsBase)
}
