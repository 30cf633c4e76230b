// Package rabbitmq publishes lead events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher sends persistent JSON messages with publisher confirms.
// A closed connection is re-dialed on the next publish.
type Publisher struct {
	url      string
	exchange string
	logger   *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation
}

// NewPublisher dials RabbitMQ and declares the topic exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, logger: logger}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// Publish sends body with routingKey and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.logger.Warn("rabbitmq connection lost, reconnecting")
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	tag := p.ch.GetNextPublishSeqNo()
	err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
	}

	if err := awaitConfirm(ctx, p.confirms, tag, confirmGrace); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
	}
	return nil
}

var (
	errConfirmStreamClosed = errors.New("confirm stream closed")
	errNotAcknowledged     = errors.New("not acknowledged")
)

// confirmGrace bounds the extra wait for a late confirm after a timeout.
var confirmGrace = 2 * time.Second

// awaitConfirm waits for the confirm of delivery tag. Confirms of earlier
// deliveries are discarded. When ctx ends first it still reads the late
// confirm for up to grace so the next publish starts from an aligned stream.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, grace time.Duration) error {
	for {
		select {
		case c, ok := <-confirms:
			if !ok {
				return errConfirmStreamClosed
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return errNotAcknowledged
			}
			return nil
		case <-ctx.Done():
			drainConfirm(confirms, tag, grace)
			return ctx.Err()
		}
	}
}

func drainConfirm(confirms <-chan amqp.Confirmation, tag uint64, grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	for {
		select {
		case c, ok := <-confirms:
			if !ok || c.DeliveryTag >= tag {
				return
			}
		case <-timer.C:
			return
		}
	}
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}

// connectLocked must be called with p.mu held.
func (p *Publisher) connectLocked() (err error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}

	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	if err = ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: failed to declare exchange %s: %w", p.exchange, err)
	}

	if err = ch.Confirm(false); err != nil {
		return fmt.Errorf("rabbitmq: failed to enable confirms: %w", err)
	}

	p.conn = conn
	p.ch = ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	p.logger.Info("rabbitmq connection established", zap.String("exchange", p.exchange))
	return nil
}
