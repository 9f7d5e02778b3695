package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
)

// RecordingHandler is a shared.EventHandler that keeps every event it receives
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler creates a handler for the given event types; none means all
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error
func (h *RecordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the recorded events
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// Count returns the number of recorded events
func (h *RecordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes later Handle calls fail with err
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// WaitForEventCount waits until the handler has recorded at least count events
func WaitForEventCount(t *testing.T, h *RecordingHandler, count int, timeout time.Duration) bool {
	t.Helper()
	return WaitForCondition(t, func() bool { return h.Count() >= count }, timeout, 10*time.Millisecond)
}
