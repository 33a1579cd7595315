// Package amqp publishes and consumes ledger events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"finvue/internal/log"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// publisher is the part of *amqp091.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	pub     publisher

	breaker *gobreaker.CircuitBreaker
}

// NewClient dials url and declares a durable direct exchange with one
// durable queue bound under its own name.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := newClient(url, exchangeName, queueName)
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchangeName, queueName string) *Client {
	return &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		breaker:      newBreaker("amqp-publish"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger(context.Background()).Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(ch, c.exchangeName, c.queueName); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn, c.channel, c.pub = conn, ch, ch
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Direct exchange: routing key equals the queue name.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishEvent sends ev as a persistent JSON message. Calls fail fast while
// the breaker is open.
func (c *Client) PublishEvent(ctx context.Context, ev LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.publish(ctx, body, true)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker is open: %w", err)
	}
	if err != nil {
		return err
	}

	logger(ctx).DebugContext(ctx, "Published ledger event",
		log.FieldEventKind, ev.Kind,
		log.FieldTransactionID, ev.Transaction.ID,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte, retry bool) error {
	c.mu.Lock()
	pub := c.pub
	c.mu.Unlock()
	if pub == nil {
		return errors.New("amqp channel not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := pub.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil && retry && isConnectionError(err) && c.url != "" {
		logger(ctx).WarnContext(ctx, "AMQP connection lost, reconnecting", log.FieldError, err)
		if rerr := c.connect(); rerr != nil {
			return fmt.Errorf("publish message: %w (reconnect: %v)", err, rerr)
		}
		return c.publish(ctx, body, false)
	}
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeEvents delivers events to handler until ctx ends. Handler errors
// requeue the message; undecodable bodies are dropped. A lost connection is
// redialled with exponential backoff.
func (c *Client) ConsumeEvents(ctx context.Context, handler func(context.Context, LedgerEvent) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := exponentialBackoff(attempt)
		logger(ctx).WarnContext(ctx, "Event consumption interrupted, retrying",
			log.FieldError, err, "attempt", attempt, "wait", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if rerr := c.connect(); rerr != nil {
			attempt++
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, LedgerEvent) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("amqp channel not connected")
	}

	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	logger(ctx).InfoContext(ctx, "Consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			handleDelivery(ctx, d, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery used after handling.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, LedgerEvent) error) {
	dispatch(ctx, d.Body, d, handler)
}

func dispatch(ctx context.Context, body []byte, ack acknowledger, handler func(context.Context, LedgerEvent) error) {
	ev, err := LedgerEventFromJSON(body)
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Dropping undecodable event", log.FieldError, err)
		ack.Nack(false, false)
		return
	}
	if err := handler(ctx, ev); err != nil {
		logger(ctx).ErrorContext(ctx, "Event handler failed, requeueing",
			log.FieldError, err, log.FieldEventKind, ev.Kind, log.FieldTransactionID, ev.Transaction.ID)
		ack.Nack(false, true)
		return
	}
	ack.Ack(false)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentAMQP)
}
