// Package events publishes booking lifecycle events to a RabbitMQ topic
// exchange so that other systems can react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the JSON envelope written to the exchange.
type Event struct {
	ID          string           `json:"id"`
	Type        domain.EventType `json:"type"`
	Subject     domain.Subject   `json:"subject"`
	RecipientID int32            `json:"recipient_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// RoutingKey is "<subject kind>.<event type>", e.g. "booking.booking_cancelled".
func (e Event) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Subject.Kind, e.Type)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Connect dials the broker and declares a durable topic exchange.
func Connect(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	logger.Info("Connected to RabbitMQ", "exchange", exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish writes the event as a persistent JSON message. A missing id or
// timestamp is filled in.
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logger.ExternalServiceCall("RabbitMQ", "Publish", "exchange", p.exchange, "routingKey", e.RoutingKey())
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		e.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    e.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt,
		})
	logger.ExternalServiceResult("RabbitMQ", "Publish", err, "eventID", e.ID)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
