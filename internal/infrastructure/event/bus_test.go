package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// testHandler records the events it receives
type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func newReceiptEvent() *collection.ReceiptAppliedEvent {
	return &collection.ReceiptAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(collection.EventTypeReceiptApplied,
			collection.AggregateTypeInstallment, uuid.New(), uuid.New()),
		ReceiptID: uuid.New(),
		Status:    collection.LabelPartiallyPaid,
	}
}

func TestInMemoryEventBus_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	receipts := newTestHandler(collection.EventTypeReceiptApplied)
	overrides := newTestHandler(collection.EventTypeStatusOverridden)
	all := newTestHandler()
	bus.Subscribe(receipts)
	bus.Subscribe(overrides)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(), newReceiptEvent(), newReceiptEvent(), newOverrideEvent())
	require.NoError(t, err)

	assert.Equal(t, 2, receipts.count())
	assert.Equal(t, 1, overrides.count())
	assert.Equal(t, 3, all.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler(collection.EventTypeReceiptApplied)
	bus.Subscribe(h, collection.EventTypeStatusOverridden)

	require.NoError(t, bus.Publish(context.Background(), newReceiptEvent(), newOverrideEvent()))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_HandlerFailuresAreJoined(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler(collection.EventTypeReceiptApplied)
	failing.err = errors.New("broker unreachable")
	panicking := newTestHandler(collection.EventTypeReceiptApplied)
	panicking.panicWith = "nil map"
	healthy := newTestHandler(collection.EventTypeReceiptApplied)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	event := newReceiptEvent()
	err := bus.Publish(context.Background(), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Contains(t, err.Error(), "handler panicked: nil map")
	assert.Contains(t, err.Error(), event.EventID().String())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_NoHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.NoError(t, bus.Publish(context.Background(), newReceiptEvent()))
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler(collection.EventTypeReceiptApplied)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newReceiptEvent()))
	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newReceiptEvent()))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_StopRejectsNewEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler()
	bus.Subscribe(h)
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))

	assert.ErrorIs(t, bus.Publish(ctx, newReceiptEvent()), ErrBusStopped)
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newReceiptEvent()))
	assert.Equal(t, 1, h.count())
}

// blockingHandler holds a publish open until released
type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	close(h.entered)
	<-h.release
	return nil
}

func (h *blockingHandler) EventTypes() []string { return nil }

func TestInMemoryEventBus_StopWaitsForInFlightPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &blockingHandler{entered: make(chan struct{}), release: make(chan struct{})}
	bus.Subscribe(h)

	published := make(chan error, 1)
	go func() { published <- bus.Publish(context.Background(), newReceiptEvent()) }()
	<-h.entered

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(short), context.DeadlineExceeded)

	close(h.release)
	require.NoError(t, <-published)

	done, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	assert.NoError(t, bus.Stop(done))
}
