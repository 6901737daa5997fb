package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliveryQueueName is the queue consumed by the device bridge.
const DeliveryQueueName = "notification_deliveries"

// DeliveryPublisher pushes due notification entries toward devices.
type DeliveryPublisher interface {
	Publish(ctx context.Context, entry Entry) error
	Close() error
}

// RabbitMQPublisher implements DeliveryPublisher over a durable queue.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the delivery queue.
func NewRabbitMQPublisher(amqpURL string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		DeliveryQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to declare delivery queue: %w", err)
	}

	return &RabbitMQPublisher{conn: conn, channel: ch}, nil
}

// Publish sends one entry to the delivery queue.
func (p *RabbitMQPublisher) Publish(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",                // default exchange
		DeliveryQueueName, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish entry: %w", err)
	}
	return nil
}

// Close closes the RabbitMQ connection.
func (p *RabbitMQPublisher) Close() error {
	return p.conn.Close()
}

// ReminderMarker records when a task's reminder was actually delivered.
// The weekly reminder cadence anchors on this timestamp.
type ReminderMarker interface {
	SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// Dispatcher periodically moves due entries from the pending store to
// the delivery queue. It runs inside the worker.
type Dispatcher struct {
	sink      Sink
	publisher DeliveryPublisher
	marker    ReminderMarker
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(sink Sink, publisher DeliveryPublisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, publisher: publisher, logger: logger}
}

// WithReminderMarker makes the dispatcher stamp lastReminderSent on the
// task named by an entry's task_id metadata when that entry is delivered.
func (d *Dispatcher) WithReminderMarker(marker ReminderMarker) *Dispatcher {
	d.marker = marker
	return d
}

// DispatchDue publishes every pending entry whose trigger time has
// passed, then removes it from the pending set. Returns the number of
// entries dispatched. Failures on a single entry are logged and do not
// stop the sweep.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	pending, err := d.sink.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending entries: %w", err)
	}

	dispatched := 0
	var delivered []int32
	for _, entry := range pending {
		if entry.TriggerAt.After(now) {
			continue
		}

		if err := d.publisher.Publish(ctx, entry); err != nil {
			d.logger.Error("failed_to_publish_notification",
				zap.Int32("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}

		d.markReminderSent(ctx, entry, now)

		delivered = append(delivered, entry.ID)
		dispatched++
	}

	if len(delivered) > 0 {
		if err := d.sink.Cancel(ctx, delivered); err != nil {
			return dispatched, fmt.Errorf("failed to clear delivered entries: %w", err)
		}
	}

	return dispatched, nil
}

// markReminderSent stamps the owning task of a per-task entry. Grouped
// and test entries carry no task_id and are skipped. Failures are
// logged; the delivery itself already happened.
func (d *Dispatcher) markReminderSent(ctx context.Context, entry Entry, now time.Time) {
	if d.marker == nil {
		return
	}
	raw, ok := entry.Metadata["task_id"].(string)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(raw)
	if err != nil {
		d.logger.Warn("invalid_task_id_in_entry_metadata",
			zap.Int32("entry_id", entry.ID),
			zap.String("task_id", raw),
		)
		return
	}
	if err := d.marker.SetLastReminderSent(ctx, taskID, now); err != nil {
		d.logger.Error("failed_to_mark_reminder_sent",
			zap.String("task_id", raw),
			zap.Error(err),
		)
	}
}
