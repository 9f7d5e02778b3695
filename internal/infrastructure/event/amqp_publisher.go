package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 5 * time.Second

// amqpChannel is the subset of *amqp091.Channel the publisher uses
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher forwards domain events to a topic exchange.
// It subscribes to the in-memory bus as a wildcard handler; the routing key is the event type.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    amqpChannel
	exchange   string
	serializer *EventSerializer
	logger     *zap.Logger
	timeout    time.Duration
	mu         sync.Mutex
	closeOnce  sync.Once
}

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(url, exchange string, serializer *EventSerializer, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newAMQPPublisherWithChannel(channel, exchange, serializer, logger)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisherWithChannel(ch amqpChannel, exchange string, serializer *EventSerializer, logger *zap.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		channel:    ch,
		exchange:   exchange,
		serializer: serializer,
		logger:     logger,
		timeout:    defaultPublishTimeout,
	}, nil
}

// Handle publishes one event
func (p *AMQPPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	body, err := p.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishing
	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,        // exchange
		event.EventType(), // routing key
		false,             // mandatory
		false,             // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.EventID().String(),
			Type:         event.EventType(),
			Timestamp:    event.OccurredAt(),
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.Debug("Event published",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("exchange", p.exchange),
	)
	return nil
}

// EventTypes returns nil so the publisher receives every event
func (p *AMQPPublisher) EventTypes() []string {
	return nil
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.channel != nil {
			p.channel.Close()
		}
		if p.conn != nil {
			err = p.conn.Close()
		}
	})
	return err
}

var _ shared.EventHandler = (*AMQPPublisher)(nil)
