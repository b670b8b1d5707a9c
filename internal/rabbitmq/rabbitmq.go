package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tenant_service/internal/models"
)

var (
	ErrDeliveriesClosed = errors.New("delivery channel closed")
	// ErrPermanent marks a message that will never succeed.
	ErrPermanent = errors.New("permanent failure")
)

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// New dials the broker and declares a durable queue.
func New(urlForConn string, queueName string) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

func (r *RabbitMQClient) SendMessage(ctx context.Context, msg models.Message) error {
	const op = "rabbitmq.SendMessage"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		r.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MessageHandler processes one delivery. A nil error acks the delivery.
// Returning ErrPermanent drops it. Any other error requeues it once.
type MessageHandler func(ctx context.Context, msg models.Message) error

// StartReading consumes the queue until ctx is cancelled or the broker closes
// the delivery channel.
func (r *RabbitMQClient) StartReading(ctx context.Context, handle MessageHandler) error {
	const op = "rabbitmq.StartReading"

	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", op, ErrDeliveriesClosed)
			}

			if err := dispatch(ctx, d, handle); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}
}

func dispatch(ctx context.Context, d amqp.Delivery, handle MessageHandler) error {
	var msg models.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return d.Reject(false)
	}

	err := handle(ctx, msg)
	switch {
	case err == nil:
		return d.Ack(false)
	case errors.Is(err, ErrPermanent):
		return d.Reject(false)
	default:
		return d.Nack(false, !d.Redelivered)
	}
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	_ = r.conn.Close()
}
