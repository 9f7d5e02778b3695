package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/erp/receivables/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish once Stop has been called
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus fans committed receivables events (ReceiptApplied,
// InstallmentStatusOverridden) out to subscribers on the publishing goroutine.
// Delivery is best effort: a failing handler never undoes the ledger change
// that raised the event, its error is logged and joined into Publish's result.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
	// publishes hold the read lock so Stop can wait for them to drain
	mu sync.RWMutex
}

// NewInMemoryEventBus creates a bus that accepts events until Stop
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers every event to its handlers in order. All handlers run
// even when one fails.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped.Load() {
		b.logger.Warn("Event bus stopped, dropping events", zap.Int("count", len(events)))
		return ErrBusStopped
	}

	var errs []error
	for _, event := range events {
		for _, handler := range b.registry.HandlersFor(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.String("handler", fmt.Sprintf("%T", handler)),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("%s %s: %w", event.EventType(), event.EventID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventTypes, or for the handler's own
// EventTypes when none are given. An empty list subscribes to every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start (re)opens the bus for publishing
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.stopped.Store(false)
	b.logger.Info("Event bus started", zap.Int("handlers", len(b.registry.All())))
	return nil
}

// Stop rejects new events and waits for in-flight publishes until ctx ends
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.stopped.Store(true)
	drained := make(chan struct{})
	go func() {
		b.mu.Lock()
		b.mu.Unlock()
		close(drained)
	}()
	select {
	case <-drained:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus drain: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
