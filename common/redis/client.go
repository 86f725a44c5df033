package redis

import (
	"context"
	"fmt"
	"time"

	"senser/common/config"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers don't import go-redis directly
type Client = redis.Client

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 3 * time.Second
)

// NewRedisClient pooled client sized from cfg; store calls carry their own
// context deadline, so read/write timeouts stay at the driver defaults
func NewRedisClient(cfg *config.RedisConfig) *Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
	})
}

// Ping fails fast at startup instead of on the first request
func Ping(ctx context.Context, client *Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}

func Close(client *Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
