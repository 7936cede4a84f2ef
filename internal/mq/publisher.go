package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeLaunchRequested MessageType = "launch.requested"
	MessageTypeJobReady        MessageType = "job.ready"
	MessageTypeJobCompleted    MessageType = "job.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// LaunchRequestedPayload — payload для сообщения о новом launch.
type LaunchRequestedPayload struct {
	LaunchID uuid.UUID `json:"launch_id"`
}

// JobReadyPayload — payload для сообщения о job, готовом к выполнению.
type JobReadyPayload struct {
	JobID    uuid.UUID `json:"job_id"`
	LaunchID uuid.UUID `json:"launch_id"`
}

// JobCompletedPayload — payload для сообщения о завершённом job.
type JobCompletedPayload struct {
	JobID    uuid.UUID `json:"job_id"`
	LaunchID uuid.UUID `json:"launch_id"`
	Type     string    `json:"type"`
	Status   string    `json:"status"` // SUCCEEDED или FAILED
	Error    string    `json:"error,omitempty"`
	Attempt  int       `json:"attempt"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishLaunchRequested публикует событие о новом launch.
// Потребитель: Orchestrator.
func (p *Publisher) PublishLaunchRequested(ctx context.Context, launchID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeLaunchRequested,
		Payload:   LaunchRequestedPayload{LaunchID: launchID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeLaunches, RoutingKeyRequested, msg)
}

// PublishJobReady публикует событие о job, готовом к выполнению.
// Потребитель: Worker.
func (p *Publisher) PublishJobReady(ctx context.Context, jobID, launchID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobReady,
		Payload:   JobReadyPayload{JobID: jobID, LaunchID: launchID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyReady, msg)
}

// PublishJobCompleted публикует событие о завершённом job.
// Потребитель: Orchestrator.
func (p *Publisher) PublishJobCompleted(ctx context.Context, payload JobCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyCompleted, msg)
}
