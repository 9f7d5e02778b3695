package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/erp/receivables/internal/domain/shared"
)

// ErrUnknownEventType is returned for event types that were never registered
var ErrUnknownEventType = errors.New("unknown event type")

// EventSerializer encodes receivables events as JSON message bodies and
// decodes them back by event type. Only registered types are encoded, so
// every message put on the exchange can be decoded by a consumer using
// RegisterAllEvents.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register binds eventType to the concrete type of prototype
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes a registered event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType())
	}
	return json.Marshal(event)
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s is not a domain event", eventType)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be encoded and decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
