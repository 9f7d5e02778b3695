package reconciliation

import (
	"context"
	"errors"
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

// memoryLedger is an in-memory stand-in for the receipt and override repositories.
// Apply mirrors the transactional repository: build, insert, increment, maybe clear.
type memoryLedger struct {
	mu           sync.Mutex
	contracts    map[uuid.UUID]*collection.Contract
	installments map[uuid.UUID]*collection.Installment
	receipts     map[uuid.UUID]*collection.Receipt
	byKey        map[string]uuid.UUID
	logs         []collection.StatusOverrideLog
	applyErr     error
	appendErr    error
	applyCalls   int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		contracts:    make(map[uuid.UUID]*collection.Contract),
		installments: make(map[uuid.UUID]*collection.Installment),
		receipts:     make(map[uuid.UUID]*collection.Receipt),
		byKey:        make(map[string]uuid.UUID),
	}
}

func (l *memoryLedger) addContract(owner uuid.UUID, cur valueobject.Currency) *collection.Contract {
	c := &collection.Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    "C-" + uuid.NewString()[:6],
		SalesOwnerID:      owner,
		Currency:          cur,
		State:             collection.ContractStateActive,
	}
	l.contracts[c.ID] = c
	return c
}

func (l *memoryLedger) addInstallment(c *collection.Contract, due, paid string, override string) *collection.Installment {
	dueDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	inst := &collection.Installment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        c.ID,
		Sequence:          1,
		AmountDue:         decimal.RequireFromString(due),
		AmountPaid:        decimal.RequireFromString(paid),
		DueDate:           &dueDate,
		StatusOverride:    override,
	}
	l.installments[inst.ID] = inst
	return inst
}

func (l *memoryLedger) lookup(id uuid.UUID, scope *uuid.UUID) (*collection.Installment, *collection.Contract, error) {
	inst, ok := l.installments[id]
	if !ok {
		return nil, nil, shared.ErrNotFound
	}
	c := l.contracts[inst.ContractID]
	if scope != nil && !c.VisibleTo(shared.Identity{UserID: *scope, SelfOnly: true}) {
		return nil, nil, shared.ErrNotFound
	}
	return inst, c, nil
}

func (l *memoryLedger) Apply(ctx context.Context, installmentID uuid.UUID, scope *uuid.UUID, plan collection.ReceiptPlan) (*collection.ApplyOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyCalls++
	if l.applyErr != nil {
		return nil, l.applyErr
	}
	inst, c, err := l.lookup(installmentID, scope)
	if err != nil {
		return nil, err
	}
	snapshot := *inst
	r, err := plan.Build(&snapshot, c)
	if err != nil {
		return nil, err
	}
	if r.IdempotencyKey != nil {
		k := r.CreatedBy.String() + ":" + *r.IdempotencyKey
		if _, exists := l.byKey[k]; exists {
			return nil, collection.ErrDuplicateReceipt
		}
		l.byKey[k] = r.ID
	}
	l.receipts[r.ID] = r

	inst.AmountPaid = inst.AmountPaid.Add(r.AppliedAmount)
	received := r.ReceivedDate
	inst.LastReceiptAt = &received
	inst.LastReceiptMethod = r.Method
	inst.Version++

	out := &collection.ApplyOutcome{Receipt: r, Contract: c}
	if plan.ShouldClearOverride != nil && plan.ShouldClearOverride(inst) {
		out.PreviousOverride = inst.StatusOverride
		out.OverrideCleared = true
		l.logs = append(l.logs, *collection.NewStatusOverrideLog(collection.EntityTypeInstallment, inst.ID,
			inst.StatusOverride, "", "cleared by receipt "+r.ID.String(), r.CreatedBy))
		inst.StatusOverride = ""
	}
	updated := *inst
	out.Installment = &updated
	return out, nil
}

func (l *memoryLedger) FindByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.receipts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if _, _, err := l.lookup(r.InstallmentID, scope); err != nil {
		return nil, err
	}
	copied := *r
	return &copied, nil
}

func (l *memoryLedger) FindByIdempotencyKey(ctx context.Context, createdBy uuid.UUID, key string) (*collection.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byKey[createdBy.String()+":"+key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *l.receipts[id]
	return &copied, nil
}

func (l *memoryLedger) AppendAttachments(ctx context.Context, receiptID uuid.UUID, refs collection.AttachmentRefs) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	r, ok := l.receipts[receiptID]
	if !ok {
		return shared.ErrNotFound
	}
	r.Attachments = append(r.Attachments, refs...)
	return nil
}

func (l *memoryLedger) FindInstallment(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Installment, *collection.Contract, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, c, err := l.lookup(id, scope)
	if err != nil {
		return nil, nil, err
	}
	copied := *inst
	return &copied, c, nil
}

func (l *memoryLedger) SetInstallmentOverride(ctx context.Context, entry *collection.StatusOverrideLog, scope *uuid.UUID) (*collection.Installment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, _, err := l.lookup(entry.EntityID, scope)
	if err != nil {
		return nil, err
	}
	entry.PreviousOverride = inst.StatusOverride
	inst.StatusOverride = entry.NewOverride
	inst.Version++
	l.logs = append(l.logs, *entry)
	copied := *inst
	return &copied, nil
}

func (l *memoryLedger) ListLogs(ctx context.Context, entityID uuid.UUID) ([]collection.StatusOverrideLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []collection.StatusOverrideLog
	for i := len(l.logs) - 1; i >= 0; i-- {
		if l.logs[i].EntityID == entityID {
			out = append(out, l.logs[i])
		}
	}
	return out, nil
}

func (l *memoryLedger) paid(id uuid.UUID) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.installments[id].AmountPaid
}

// staticRates serves a fixed table
type staticRates struct {
	table  *currency.RateTable
	err    error
	misses []valueobject.Currency
}

func (s *staticRates) Table(ctx context.Context) (*currency.RateTable, error) {
	return s.table, s.err
}

func (s *staticRates) RecordMiss(ctx context.Context, code valueobject.Currency, err error) {
	s.misses = append(s.misses, code)
}

// MockAttachmentStore is a testify mock of AttachmentStore
type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockAttachmentStore) PresignPreview(ctx context.Context, key string) (string, time.Time, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAttachmentStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var errStorage = errors.New("connection reset by peer")
