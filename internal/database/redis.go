package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisClientName = "customer-service"

// RedisConfig tunes the event publisher's client. Zero fields keep the
// go-redis defaults.
type RedisConfig struct {
	PoolSize    int
	DialTimeout time.Duration
}

func NewRedisClient(ctx context.Context, redisURL string, redisCfg RedisConfig) (*redis.Client, error) {
	opts, err := redisOptions(redisURL, redisCfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}
	return client, nil
}

func redisOptions(redisURL string, redisCfg RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	opts.ClientName = redisClientName
	if redisCfg.PoolSize > 0 {
		opts.PoolSize = redisCfg.PoolSize
	}
	if redisCfg.DialTimeout > 0 {
		opts.DialTimeout = redisCfg.DialTimeout
	}
	return opts, nil
}
