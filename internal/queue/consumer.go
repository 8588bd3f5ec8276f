package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/surepay/surepay-api/internal/config"
)

const maxBackoff = 30 * time.Second

// EventFunc receives each decoded lifecycle event.  Returning an error
// rejects the message without requeueing it.
type EventFunc func(ServiceStartedEvent) error

// Consume reads the lifecycle queue until ctx is cancelled, reconnecting
// with exponential backoff when the broker goes away.  It returns nil on
// cancellation and ErrBrokerDisabled when no URL is configured.
func Consume(ctx context.Context, cfg config.BrokerConfig, logger *slog.Logger, fn EventFunc) error {
	if !cfg.Enabled() {
		return ErrBrokerDisabled
	}
	if logger == nil {
		logger = slog.Default()
	}

	backoff := time.Second
	for {
		conn, err := dial(cfg.URL)
		if err != nil {
			logger.Warn("failed to dial broker", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg.Queue, logger, fn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, logger *slog.Logger, fn EventFunc) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("set QoS failed", "error", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, fn); err != nil {
			logger.Warn("handle message failed", "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, fn EventFunc) error {
	var ev ServiceStartedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Service == "" {
		return errors.New("event without service name")
	}
	return fn(ev)
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
