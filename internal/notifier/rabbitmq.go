package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agromind-server/config"
	"agromind-server/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQNotifier publishes auth events to a durable queue.
type RabbitMQNotifier struct {
	conn    *amqp.Connection
	channel publisher
	closer  func() error
	queue   string
}

func NewRabbitMQNotifier(cfg *config.BrokerConfig) (*RabbitMQNotifier, error) {
	const op = "notifier.NewRabbitMQNotifier"

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName, true, false, false, false, nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQNotifier{
		conn:    conn,
		channel: ch,
		closer:  ch.Close,
		queue:   q.Name,
	}, nil
}

func (n *RabbitMQNotifier) Publish(ctx context.Context, event model.AuthEvent) error {
	const op = "notifier.RabbitMQNotifier.Publish"

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = n.channel.PublishWithContext(
		ctx,
		"",
		n.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.Type),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (n *RabbitMQNotifier) Close() {
	if n.closer != nil {
		_ = n.closer()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, model.AuthEvent) error { return nil }
