package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []publishedMessage
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newOverrideEvent() *collection.StatusOverriddenEvent {
	log := collection.NewStatusOverrideLog(collection.EntityTypeInstallment, uuid.New(), "", "Collections", "handed to agency", uuid.New())
	return collection.NewStatusOverriddenEvent(log)
}

func TestAMQPPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := newAMQPPublisherWithChannel(ch, "receivables.events", NewEventSerializer(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"receivables.events:topic"}, ch.declared)

	ch = &fakeChannel{declareErr: errors.New("access refused")}
	_, err = newAMQPPublisherWithChannel(ch, "receivables.events", NewEventSerializer(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declare exchange")
}

func TestAMQPPublisher_Handle(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisherWithChannel(ch, "receivables.events", newReceivablesSerializer(), zap.NewNop())
	require.NoError(t, err)

	event := newOverrideEvent()
	require.NoError(t, p.Handle(context.Background(), event))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "receivables.events", got.exchange)
	assert.Equal(t, collection.EventTypeStatusOverridden, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, event.EventID().String(), got.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "Collections", body["new_override"])
}

func TestAMQPPublisher_HandleError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newAMQPPublisherWithChannel(ch, "x", newReceivablesSerializer(), zap.NewNop())
	require.NoError(t, err)

	err = p.Handle(context.Background(), newOverrideEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event")
}

func TestAMQPPublisher_SkipsUnregisteredEvents(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisherWithChannel(ch, "x", NewEventSerializer(), zap.NewNop())
	require.NoError(t, err)

	err = p.Handle(context.Background(), newReceiptEvent())
	assert.ErrorIs(t, err, ErrUnknownEventType)
	assert.Empty(t, ch.published)
}

func TestAMQPPublisher_ForwardsFromBus(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisherWithChannel(ch, "x", newReceivablesSerializer(), zap.NewNop())
	require.NoError(t, err)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(p)
	assert.Nil(t, p.EventTypes())

	var events []shared.DomainEvent
	for i := 0; i < 3; i++ {
		events = append(events, newOverrideEvent())
	}
	require.NoError(t, bus.Publish(context.Background(), events...))
	assert.Len(t, ch.published, 3)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
