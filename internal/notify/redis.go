package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deck-server/internal/store"
)

// RedisPublisher публикует сводки событий в канал Redis Pub/Sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher подключается к Redis по URL (redis://host:port/db).
func NewRedisPublisher(ctx context.Context, url, channel string, logger *zap.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisPublisherWithClient(client, channel, logger), nil
}

// NewRedisPublisherWithClient использует готовый клиент.
func NewRedisPublisherWithClient(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Redis publisher ready", zap.String("channel", channel))
	return &RedisPublisher{client: client, channel: channel, logger: logger.Named("redis")}
}

func (p *RedisPublisher) Publish(ctx context.Context, event store.Event) error {
	body, err := encode(event, false)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", p.channel, err)
	}
	p.logger.Debug("Event published", zap.String("kind", string(event.Kind)), zap.Int64("receivers", receivers))
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Client возвращает клиент Redis для других компонентов процесса.
func (p *RedisPublisher) Client() *redis.Client {
	return p.client
}
