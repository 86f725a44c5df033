package events

import (
	"context"
	"fmt"

	rediscommon "senser/common/redis"
	"senser/internal/domain"

	"github.com/go-redis/redis/v8"
)

// DefaultStream Redis stream readings are appended to
const DefaultStream = "sensor:readings"

// RedisStreamPublisher XADDs {"data": <envelope json>, "timestamp": <unix>}
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream}
}

func (p *RedisStreamPublisher) PublishReadingRecorded(ctx context.Context, event *domain.ReadingRecorded) error {
	if _, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, newEnvelope(event)); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// Close leaves the shared client open; main owns it
func (p *RedisStreamPublisher) Close() error { return nil }
