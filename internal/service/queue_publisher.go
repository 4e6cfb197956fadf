package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/queue"
)

// AMQPPublisher publishes refresh events to a durable RabbitMQ queue.  A
// connection is dialed per message; refreshes are infrequent enough that a
// long-lived channel is not worth its reconnect handling.
type AMQPPublisher struct {
	url   string
	queue string
	log   logrus.FieldLogger
}

func NewAMQPPublisher(url, queueName string, log logrus.FieldLogger) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.RatesRefreshedQueue
	}
	return &AMQPPublisher{url: url, queue: queueName, log: log.WithField("component", "amqp-publisher")}
}

// PublishRatesRefreshed sends ev as a persistent JSON message.  Errors are
// logged and returned so the caller may ignore them.
func (p *AMQPPublisher) PublishRatesRefreshed(ctx context.Context, ev queue.RatesRefreshedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq dial failed")
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq channel open failed")
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Warn("rabbitmq queue declare failed")
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.WithError(err).Warn("rabbitmq publish failed")
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
