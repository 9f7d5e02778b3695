package event

import (
	"slices"
	"sync"

	"github.com/erp/receivables/internal/domain/shared"
)

// HandlerRegistry maps event types to handlers. Wildcard handlers, such as
// the AMQP forwarder, receive every event type.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byType: make(map[string][]shared.EventHandler)}
}

// Register adds handler for eventTypes, or as a wildcard when none are given.
// Registering the same handler twice for a type is a no-op.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		if !slices.Contains(r.wildcard, handler) {
			r.wildcard = append(r.wildcard, handler)
		}
		return
	}
	for _, t := range eventTypes {
		if !slices.Contains(r.byType[t], handler) {
			r.byType[t] = append(r.byType[t], handler)
		}
	}
}

// Unregister removes handler everywhere it was registered
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for t, hs := range r.byType {
		if hs = without(hs, handler); len(hs) == 0 {
			delete(r.byType, t)
		} else {
			r.byType[t] = hs
		}
	}
}

// HandlersFor returns the handlers of eventType followed by the wildcard
// handlers. A handler registered both ways appears once, so an event is
// never forwarded twice.
func (r *HandlerRegistry) HandlersFor(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	out = append(out, typed...)
	for _, h := range r.wildcard {
		if !slices.Contains(typed, h) {
			out = append(out, h)
		}
	}
	return out
}

// All returns every distinct registered handler
func (r *HandlerRegistry) All() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]shared.EventHandler(nil), r.wildcard...)
	for _, hs := range r.byType {
		for _, h := range hs {
			if !slices.Contains(out, h) {
				out = append(out, h)
			}
		}
	}
	return out
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(slices.Clone(hs), func(h shared.EventHandler) bool { return h == target })
}
