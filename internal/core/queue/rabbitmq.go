// Package queue wraps a RabbitMQ connection used as a durable work queue.
package queue

import (
	"context"
	"errors"
	"fmt"

	"freightdesk/internal/core/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Handler processes one message body. A returned error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Client publishes to and consumes from durable queues.
type Client struct {
	conn *amqp.Connection
	ch   Channel
	log  *zap.Logger
}

// Dial opens the connection and a channel.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return &Client{conn: conn, ch: ch, log: logger.Named("queue")}, nil
}

// NewWithChannel builds a client on an existing channel (used in tests).
func NewWithChannel(ch Channel) *Client {
	return &Client{ch: ch, log: logger.Named("queue")}
}

// Declare makes sure a durable queue exists.
func (c *Client) Declare(name string) error {
	if _, err := c.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Publish sends a persistent JSON message to queue through the default exchange.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	err := c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Consume delivers messages from queue to handler until ctx is done or the
// delivery channel closes. Successful messages are acked, failures are nacked
// without requeue.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	deliveries, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				c.log.Error("Message handling failed", zap.String("queue", queue), zap.Error(err))
				if nackErr := d.Nack(false, false); nackErr != nil {
					c.log.Warn("Nack failed", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				c.log.Warn("Ack failed", zap.Error(ackErr))
			}
		}
	}
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if err := c.ch.Close(); err != nil {
		return err
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
