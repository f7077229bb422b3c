package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/metrics"
)

const dialTimeout = 3 * time.Second

// Publisher sends events to RabbitMQ. It dials per publish, so a broker
// outage only affects the publishes made while it lasts.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishTransactionCreated publishes ev as a persistent JSON message on the
// transaction.created queue. Failures are returned for the caller to report.
func (p *Publisher) PublishTransactionCreated(ctx context.Context, ev TransactionCreatedEvent) error {
	err := p.publish(ctx, TransactionCreatedQueue, ev)
	metrics.ObservePublish(err)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"queue":          TransactionCreatedQueue,
		"transaction_id": ev.TransactionID,
	}).Debug("published")
	return nil
}

func (p *Publisher) publish(ctx context.Context, queueName string, payload any) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
