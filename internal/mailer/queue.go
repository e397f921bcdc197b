package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue publishes messages to, and consumes them from, a durable AMQP queue.
type Queue struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *zap.Logger
}

// NewQueue dials the broker and declares the exchange, queue and binding.
func NewQueue(url, exchangeName, queueName string, logger *zap.Logger) (*Queue, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &Queue{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
	if err := q.setup(); err != nil {
		q.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return q, nil
}

func (q *Queue) setup() error {
	if err := q.channel.ExchangeDeclare(q.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := q.channel.QueueDeclare(q.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key equals the queue name on the direct exchange
	if err := q.channel.QueueBind(q.queueName, q.queueName, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Send publishes msg as a persistent JSON delivery.
func (q *Queue) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(ctx, q.exchangeName, q.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	q.logger.Info("queued mail",
		zap.String("message_id", msg.ID),
		zap.String("exchange", q.exchangeName),
		zap.String("queue", q.queueName))
	return nil
}

// Consume delivers queued messages to handler until ctx is cancelled.
// Undecodable deliveries are dropped; handler failures are requeued.
func (q *Queue) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	deliveries, err := q.channel.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	q.logger.Info("consuming mail queue", zap.String("queue", q.queueName))

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("stopping mail consumer", zap.Error(ctx.Err()))
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("message channel closed")
			}
			switch q.handle(ctx, delivery.Body, handler) {
			case ack:
				_ = delivery.Ack(false)
			case drop:
				_ = delivery.Nack(false, false)
			case requeue:
				_ = delivery.Nack(false, true)
			}
		}
	}
}

type disposition int

const (
	ack disposition = iota
	drop
	requeue
)

func (q *Queue) handle(ctx context.Context, body []byte, handler func(context.Context, Message) error) disposition {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		q.logger.Error("failed to decode queued mail", zap.Error(err))
		return drop
	}
	if err := msg.Validate(); err != nil {
		q.logger.Error("dropping invalid queued mail", zap.String("message_id", msg.ID), zap.Error(err))
		return drop
	}
	if err := handler(ctx, msg); err != nil {
		q.logger.Error("failed to deliver queued mail", zap.String("message_id", msg.ID), zap.Error(err))
		return requeue
	}
	return ack
}

// Close releases the channel and connection.
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Consumer drains a Queue into a delivery sender.
type Consumer struct {
	queue    *Queue
	delivery Sender
}

// NewConsumer wires a queue to the sender that performs delivery.
func NewConsumer(queue *Queue, delivery Sender) *Consumer {
	return &Consumer{queue: queue, delivery: delivery}
}

// Run blocks until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	return c.queue.Consume(ctx, c.delivery.Send)
}
