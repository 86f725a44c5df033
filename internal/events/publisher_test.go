package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	rediscommon "senser/common/redis"
	"senser/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStreamPublisher_AppendsEnvelope(t *testing.T) {
	_, client := newTestRedis(t)
	pub := NewRedisStreamPublisher(client, "")
	ctx := context.Background()

	temp := 21.5
	battery := 0.8
	event := &domain.ReadingRecorded{
		SensorID: 1,
		Type:     domain.SensorTypeTemperature,
		Reading: domain.Reading{
			Temperature:  &temp,
			BatteryLevel: &battery,
			LastSeen:     "2024-03-01T10:00:00Z",
		},
		RecordedAt: time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC),
	}
	require.NoError(t, pub.PublishReadingRecorded(ctx, event))

	msgs, err := rediscommon.ReadRange(ctx, client, DefaultStream, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.NotEmpty(t, msgs[0].Values["timestamp"])

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &env))
	assert.Equal(t, TypeReadingRecorded, env.Type)
	assert.Equal(t, int64(1), env.Event.SensorID)
	assert.Equal(t, "Temperatura", env.Event.Type)
	require.NotNil(t, env.Event.Reading.Temperature)
	assert.Equal(t, 21.5, *env.Event.Reading.Temperature)
	assert.Nil(t, env.Event.Reading.Velocity)
}

func TestRedisStreamPublisher_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	pub := NewRedisStreamPublisher(client, "custom")
	mr.Close()

	err := pub.PublishReadingRecorded(context.Background(), &domain.ReadingRecorded{SensorID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishReadingRecorded(context.Background(), &domain.ReadingRecorded{}))
	assert.NoError(t, p.Close())
}
