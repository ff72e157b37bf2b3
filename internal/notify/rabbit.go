package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"deck-server/internal/store"
)

const exchangeTypeFanout = "fanout"

// RabbitPublisher публикует сводки событий в fanout exchange.
type RabbitPublisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitPublisher подключается к RabbitMQ и объявляет exchange.
func NewRabbitPublisher(url, exchange string, logger *zap.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		exchangeTypeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}
	logger.Info("Deck events exchange declared", zap.String("exchange", exchange))

	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger.Named("rabbitmq")}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event store.Event) error {
	body, err := encode(event, false)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		"",    // routing key не используется для fanout
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Type:        string(event.Kind),
			MessageId:   strconv.FormatUint(event.Version, 10) + "-" + string(event.Kind),
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish deck event: %w", err)
	}
	p.logger.Debug("Event published", zap.String("kind", string(event.Kind)), zap.Uint64("version", event.Version))
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
