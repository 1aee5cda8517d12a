// Package events publishes account events to other services over Redis Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event on %s: %w", channel, err)
	}
	return nil
}

// LogPublisher logs events instead of publishing them. Used when no Redis URL is configured.
type LogPublisher struct {
	logger logging.Logger
}

func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	p.logger.Info(ctx, "event not published, no redis configured", "channel", channel, "payload", string(data))
	return nil
}
