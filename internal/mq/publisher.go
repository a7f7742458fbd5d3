package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher emits identification events to the worker events exchange.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a publisher bound to the given topic exchange.
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// IdentifiedEvent is published after an appliance identification has been
// durably saved.
type IdentifiedEvent struct {
	RequestID        string  `json:"request_id"`
	RecordID         string  `json:"record_id"`
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	EstimatedWattage float64 `json:"estimated_wattage"`
	Confidence       float64 `json:"confidence"`
	Status           string  `json:"status"`
	StatusReason     string  `json:"status_reason,omitempty"`
	CapturedAt       string  `json:"captured_at"`
}

// PublishIdentifiedEvent publishes an appliance identification event.
func (p *Publisher) PublishIdentifiedEvent(ctx context.Context, event IdentifiedEvent, routingKey string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published identified event",
		zap.String("routing_key", routingKey),
		zap.String("record_id", event.RecordID),
		zap.String("name", event.Name),
	)

	return nil
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
