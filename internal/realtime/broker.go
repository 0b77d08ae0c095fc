package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resto-be/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// amqpChannel is the subset of *amqp.Channel the broker needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker mirrors realtime events to a RabbitMQ fanout exchange so other
// processes (kitchen screens, printers) can consume them.
type Broker struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	now      func() time.Time
}

// NewBroker dials url and declares the fanout exchange.
func NewBroker(url, exchange string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", exchange, err)
	}

	b := newBroker(ch, exchange)
	b.conn = conn
	return b, nil
}

func newBroker(ch amqpChannel, exchange string) *Broker {
	return &Broker{ch: ch, exchange: exchange, now: time.Now}
}

func (b *Broker) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(envelope{Event: msg.Event, Data: msg.Payload})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	routingKey := msg.Audience.Key()
	err = b.ch.PublishWithContext(ctx,
		b.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         msg.Event,
			DeliveryMode: amqp.Transient,
			Timestamp:    b.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Event, err)
	}

	logger.FromCtx(ctx).Debug("event published to broker",
		zap.String("layer", "realtime"),
		zap.String("exchange", b.exchange),
		zap.String("routing_key", routingKey),
		zap.Int("message_size", len(body)),
	)
	return nil
}

func (b *Broker) Close() error {
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
