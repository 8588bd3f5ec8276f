package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/surepay/surepay-api/internal/config"
)

const dialTimeout = 5 * time.Second

// ErrBrokerDisabled is returned when no broker URL is configured.
var ErrBrokerDisabled = errors.New("broker not configured")

func dial(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
}

// declareQueue makes sure the durable lifecycle queue exists.  Declaring is
// idempotent, so both the publisher and the consumer do it.
func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}

// PublishServiceStarted publishes event to the configured lifecycle queue
// as a persistent JSON message on the default exchange.  Each call opens
// and closes its own connection; it is meant to run once per process.
func PublishServiceStarted(ctx context.Context, cfg config.BrokerConfig, event ServiceStartedEvent) error {
	if !cfg.Enabled() {
		return ErrBrokerDisabled
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueue(ch, cfg.Queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "service.started",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", cfg.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
