// Package messaging publishes domain events to RabbitMQ
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"neuralflux/internal/model"
)

const (
	Exchange            = "neuralflux.events"
	RoutingGameFinished = "game.finished"
	publishTimeout      = 5 * time.Second
)

// Publisher sends game events to subscribers
type Publisher interface {
	PublishGameFinished(ctx context.Context, event *model.GameFinishedEvent) error
	Close() error
}

// EventPublisher publishes to a topic exchange. Without a URL it is a no-op.
type EventPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	enabled bool
	logger  *zap.Logger
}

func NewEventPublisher(url string, logger *zap.Logger) (*EventPublisher, error) {
	logger = logger.Named("events")
	if url == "" {
		logger.Info("AMQP_URL not set, event publishing is disabled")
		return &EventPublisher{logger: logger}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("event publisher ready", zap.String("exchange", Exchange))
	return &EventPublisher{conn: conn, channel: channel, enabled: true, logger: logger}, nil
}

func (p *EventPublisher) PublishGameFinished(ctx context.Context, event *model.GameFinishedEvent) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		Exchange,            // exchange
		RoutingGameFinished, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    event.Record.SessionID,
			Body:         body,
			Headers: amqp.Table{
				"player_id": event.Record.PlayerID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("routing_key", RoutingGameFinished),
		zap.String("session", event.Record.SessionID))
	return nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Warn("error closing RabbitMQ channel", zap.Error(err))
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("error closing RabbitMQ connection: %w", err)
	}
	return nil
}
