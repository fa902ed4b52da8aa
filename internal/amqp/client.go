package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Client wraps a RabbitMQ connection bound to the transaction sync queue.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionSync publishes a sync request for one transaction.
func (c *Client) PublishTransactionSync(ctx context.Context, id string, version int64) error {
	msg := NewTransactionSyncMessage(id, version)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published transaction sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeTransactionSync delivers sync messages to handler until ctx ends.
// Malformed messages are dropped; handler errors requeue the delivery.
func (c *Client) ConsumeTransactionSync(ctx context.Context, handler func(*TransactionSyncMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming transaction sync messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}

			msg, err := TransactionSyncMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err, "id", msg.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			slog.DebugContext(ctx, "Processed transaction sync message", "id", msg.ID)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// errDeliveriesClosed signals that the broker closed the delivery channel,
// which happens when the underlying connection drops.
var errDeliveriesClosed = errors.New("deliveries channel closed")

// isConnectionError reports whether err looks like a broken broker link,
// used to decide between reconnect and give-up.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errDeliveriesClosed) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// exponentialBackoff doubles per attempt starting from 1s, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > 30*time.Second || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Redial re-establishes the connection with backoff until ctx ends.
func (c *Client) Redial(ctx context.Context, url string) error {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}

		conn, err := amqp091.Dial(url)
		if err != nil {
			slog.WarnContext(ctx, "AMQP redial failed", "attempt", attempt, "error", err)
			continue
		}
		channel, err := conn.Channel()
		if err != nil {
			conn.Close()
			slog.WarnContext(ctx, "AMQP channel reopen failed", "attempt", attempt, "error", err)
			continue
		}

		c.conn = conn
		c.channel = channel
		if err := c.setup(); err != nil {
			c.Close()
			slog.WarnContext(ctx, "AMQP setup after redial failed", "attempt", attempt, "error", err)
			continue
		}

		slog.InfoContext(ctx, "AMQP connection re-established", "attempt", attempt)
		return nil
	}
}

// ConsumeTransactionSyncWithRedial consumes like ConsumeTransactionSync but
// survives broker outages: when the link drops it redials url and resumes.
func (c *Client) ConsumeTransactionSyncWithRedial(ctx context.Context, url string, handler func(*TransactionSyncMessage) error) error {
	return consumeWithRedial(ctx,
		func() error { return c.ConsumeTransactionSync(ctx, handler) },
		func() error { return c.Redial(ctx, url) },
	)
}

// consumeWithRedial retries consume across connection errors, redialing in
// between. Any other error ends the loop.
func consumeWithRedial(ctx context.Context, consume, redial func() error) error {
	for {
		err := consume()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}
		slog.WarnContext(ctx, "Broker link lost, redialing", "error", err)
		if err := redial(); err != nil {
			return err
		}
	}
}
