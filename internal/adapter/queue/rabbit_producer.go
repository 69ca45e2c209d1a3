package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

const (
	exchangeName = "storefront.events"

	routingKeyCreated = "order.created"
	routingKeySettled = "order.settled"
	routingKeyStale   = "intent.stale"

	fulfillmentQueue = "order.settled.q"
)

// RabbitProducer publishes storefront lifecycle events. Implements
// usecase.EventPublisher for settlements and carries drained outbox rows.
type RabbitProducer struct {
	ch *amqp.Channel
}

// NewRabbitProducer sets up the exchange, the fulfillment queue, and its
// binding once at startup.
func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		fulfillmentQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKeySettled, exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	// Publisher confirms so a settled event is not silently dropped.
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch}, nil
}

// Publish sends a raw payload under the given routing key.
func (p *RabbitProducer) Publish(ctx context.Context, routingKey string, body []byte) error {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// PublishSettled emits an order.settled event after a settlement commits.
func (p *RabbitProducer) PublishSettled(ctx context.Context, msg usecase.OrderSettledMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal settled event: %w", err)
	}
	return p.Publish(ctx, routingKeySettled, body)
}

// routingKeyFor maps an outbox channel to the exchange routing key.
func routingKeyFor(channel string) string {
	switch channel {
	case "order.created.v1":
		return routingKeyCreated
	case "intent.stale.v1":
		return routingKeyStale
	default:
		return channel
	}
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
