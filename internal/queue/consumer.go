package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RefreshConsumer reads RatesRefreshedEvent messages and appends one audit
// entry per refresh.  Malformed messages are rejected without requeue.
type RefreshConsumer struct {
	url   string
	queue string
	log   logrus.FieldLogger
	audit logrus.FieldLogger
}

func NewRefreshConsumer(url, queue string, log, audit logrus.FieldLogger) *RefreshConsumer {
	if queue == "" {
		queue = RatesRefreshedQueue
	}
	return &RefreshConsumer{url: url, queue: queue, log: log.WithField("component", "refresh-consumer"), audit: audit}
}

// OpenAuditLog opens dir/refresh.log for appending and returns a JSON
// logger writing to it.
func OpenAuditLog(dir string) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "refresh.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	l := logrus.New()
	l.SetOutput(f)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, f, nil
}

// Run consumes until ctx is cancelled, reconnecting with exponential delay
// when the broker is unavailable.
func (c *RefreshConsumer) Run(ctx context.Context) error {
	delay := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", delay).Warn("failed to dial broker")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if delay < 30*time.Second {
				delay *= 2
			}
			continue
		}
		delay = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("consume loop ended, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *RefreshConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.WithError(err).Warn("handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *RefreshConsumer) handle(body []byte) error {
	var ev RatesRefreshedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.CacheKey == "" {
		return errors.New("event without cache_key")
	}
	fields := logrus.Fields{
		"cache_key":      ev.CacheKey,
		"property_token": ev.PropertyToken,
		"check_in_date":  ev.CheckInDate,
		"trigger":        ev.Trigger,
		"rates":          ev.RatesCount,
		"competitors":    ev.Competitors,
		"refreshed_at":   ev.RefreshedAt,
	}
	if ev.TenantID != nil {
		fields["tenant_id"] = *ev.TenantID
	}
	if ev.RequestID != "" {
		fields["request_id"] = ev.RequestID
	}
	c.audit.WithFields(fields).Info("rates refreshed")
	return nil
}
