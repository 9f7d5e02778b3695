package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memoryReader is an in-memory ContractReader applying the same predicates
// as the GORM repository.
type memoryReader struct {
	contracts    []collection.Contract
	installments []collection.Installment
}

func (r *memoryReader) addContract(owner uuid.UUID, ownerName string, cur valueobject.Currency, created time.Time) *collection.Contract {
	c := collection.Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    "C-" + created.Format("0102"),
		CustomerName:      "Customer " + ownerName,
		SalesOwnerID:      owner,
		SalesOwnerName:    ownerName,
		Currency:          cur,
		State:             collection.ContractStateActive,
	}
	c.CreatedAt = created
	r.contracts = append(r.contracts, c)
	return &r.contracts[len(r.contracts)-1]
}

func (r *memoryReader) addInstallment(c *collection.Contract, seq int, due, paid, dueDate string) *collection.Installment {
	inst := collection.Installment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        c.ID,
		Sequence:          seq,
		AmountDue:         decimal.RequireFromString(due),
		AmountPaid:        decimal.RequireFromString(paid),
		DueDate:           collection.ParseDueDate(dueDate),
	}
	r.installments = append(r.installments, inst)
	return &r.installments[len(r.installments)-1]
}

func (r *memoryReader) FindContracts(ctx context.Context, f collection.ContractFilter) ([]collection.Contract, error) {
	var out []collection.Contract
	for _, c := range r.contracts {
		if f.Scope != nil && !c.VisibleTo(shared.Identity{UserID: *f.Scope, SelfOnly: true}) {
			continue
		}
		if len(f.SalesUserIDs) > 0 && !containsID(f.SalesUserIDs, c.SalesOwnerID) {
			continue
		}
		if len(f.SalesUserIDs) == 0 && len(f.OwnerUserIDs) > 0 && (c.AccountOwnerID == nil || !containsID(f.OwnerUserIDs, *c.AccountOwnerID)) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(c.ContractNumber+" "+c.CustomerName, f.Keyword) {
			continue
		}
		if f.CustomerGroup != "" && c.CustomerGroup != f.CustomerGroup {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryReader) FindContractByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Contract, error) {
	for i := range r.contracts {
		c := r.contracts[i]
		if c.ID != id {
			continue
		}
		if scope != nil && !c.VisibleTo(shared.Identity{UserID: *scope, SelfOnly: true}) {
			return nil, shared.ErrNotFound
		}
		return &c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryReader) FindInstallmentsByContracts(ctx context.Context, ids []uuid.UUID, f collection.InstallmentFilter) ([]collection.Installment, error) {
	var out []collection.Installment
	for _, inst := range r.installments {
		if !containsID(ids, inst.ContractID) {
			continue
		}
		if !f.IsZero() {
			if inst.DueDate == nil {
				continue
			}
			if f.DueStart != nil && inst.DueDate.Before(*f.DueStart) {
				continue
			}
			if f.DueEnd != nil && inst.DueDate.After(*f.DueEnd) {
				continue
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MockContractReader is a testify mock of collection.ContractReader
type MockContractReader struct {
	mock.Mock
}

func (m *MockContractReader) FindContracts(ctx context.Context, f collection.ContractFilter) ([]collection.Contract, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collection.Contract), args.Error(1)
}

func (m *MockContractReader) FindContractByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Contract, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collection.Contract), args.Error(1)
}

func (m *MockContractReader) FindInstallmentsByContracts(ctx context.Context, ids []uuid.UUID, f collection.InstallmentFilter) ([]collection.Installment, error) {
	args := m.Called(ctx, ids, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collection.Installment), args.Error(1)
}

// staticRates serves a fixed table and records misses
type staticRates struct {
	table *currency.RateTable
	err   error

	mu     sync.Mutex
	misses []valueobject.Currency
}

func (s *staticRates) Table(ctx context.Context) (*currency.RateTable, error) {
	return s.table, s.err
}

func (s *staticRates) RecordMiss(ctx context.Context, code valueobject.Currency, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses = append(s.misses, code)
}
