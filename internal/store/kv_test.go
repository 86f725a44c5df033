package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestLatestReadingKey(t *testing.T) {
	assert.Equal(t, "sensor:42:data", LatestReadingKey(42))
}

func TestRedisKV_SetGet_Overwrites(t *testing.T) {
	_, kv := setupTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "sensor:1:data", `{"battery_level":0.1}`, 0))
	require.NoError(t, kv.Set(ctx, "sensor:1:data", `{"battery_level":0.9}`, 0))

	val, err := kv.Get(ctx, "sensor:1:data")
	require.NoError(t, err)
	assert.Equal(t, `{"battery_level":0.9}`, val)
}

func TestRedisKV_Get_Miss(t *testing.T) {
	_, kv := setupTestKV(t)

	_, err := kv.Get(context.Background(), "sensor:404:data")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Set_TTL(t *testing.T) {
	mr, kv := setupTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Delete(t *testing.T) {
	mr, kv := setupTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "sensor:7:data", "{}", 0))
	require.NoError(t, kv.Delete(ctx, "sensor:7:data"))
	assert.False(t, mr.Exists("sensor:7:data"))

	// deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "sensor:7:data"))
}

func TestRedisKV_ServerDown(t *testing.T) {
	mr, kv := setupTestKV(t)
	mr.Close()

	err := kv.Set(context.Background(), "k", "v", 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
