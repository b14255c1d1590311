package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const DefaultExchange = "tutorbilling.subscription.events"

// amqpChannel is the part of *amqp.Channel the sink publishes through.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQSink publishes transitions to a durable topic exchange. The routing key is
// subscription.<from>.<to> in lower case so consumers can bind on a target state.
type RabbitMQSink struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   logger.Interface
	mu       sync.Mutex
}

func NewRabbitMQSink(url, exchange string, logger logger.Interface) (*RabbitMQSink, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Infow("RabbitMQ notification sink connected", "exchange", exchange)

	return &RabbitMQSink{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (s *RabbitMQSink) Name() string { return "rabbitmq" }

func (s *RabbitMQSink) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(toEvent(n))
	if err != nil {
		return fmt.Errorf("failed to marshal transition event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.channel.PublishWithContext(ctx,
		s.exchange,
		RoutingKey(n),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID,
			Timestamp:    n.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish transition: %w", err)
	}
	return nil
}

// RoutingKey returns the topic key for a notification.
func RoutingKey(n Notification) string {
	from := "none"
	if n.Previous != "" {
		from = strings.ToLower(n.Previous.String())
	}
	return fmt.Sprintf("subscription.%s.%s", from, strings.ToLower(n.Next.String()))
}

func (s *RabbitMQSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Warnw("error closing channel", "error", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			return err
		}
	}
	return nil
}
