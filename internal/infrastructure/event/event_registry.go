package event

import "github.com/erp/receivables/internal/domain/collection"

// RegisterAllEvents registers every published event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(collection.EventTypeReceiptApplied, &collection.ReceiptAppliedEvent{})
	serializer.Register(collection.EventTypeStatusOverridden, &collection.StatusOverriddenEvent{})
}
