//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"senser/common/cassandra"
	"senser/common/config"
	"senser/common/mongodb"
	"senser/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getTestProfiles(t *testing.T) *MongoProfilesRepository {
	cfg := &config.MongoConfig{
		URI:        getEnv("TEST_MONGO_URI", "mongodb://localhost:27017"),
		Database:   getEnv("TEST_MONGO_DATABASE", "senser_test"),
		Collection: "sensors",
	}
	client, err := mongodb.Connect(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to MongoDB: %v", err)
		return nil
	}
	t.Cleanup(func() {
		_ = mongodb.Collection(client, cfg).Drop(context.Background())
		_ = mongodb.Disconnect(client)
	})
	return NewMongoProfilesRepository(mongodb.Collection(client, cfg))
}

func TestMongoProfiles_UpsertFindNearDelete(t *testing.T) {
	repo := getTestProfiles(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureGeoIndex(ctx))

	near := &domain.SensorProfile{ID: 1, Location: domain.NewGeoPoint(2.1700, 41.3800), Type: "Temperatura"}
	far := &domain.SensorProfile{ID: 2, Location: domain.NewGeoPoint(2.8214, 41.9794), Type: "Temperatura"}
	require.NoError(t, repo.Upsert(ctx, near))
	require.NoError(t, repo.Upsert(ctx, far))

	got, err := repo.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Temperatura", got.Type)

	found, err := repo.FindNear(ctx, 41.3801, 2.1701, 1000)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.FindOne(ctx, 1)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	// deleting a missing document is not an error
	assert.NoError(t, repo.Delete(ctx, 1))
}

func TestCassandraReadingEvents_RoundTrip(t *testing.T) {
	cfg := &config.CassandraConfig{
		Hosts:    []string{getEnv("TEST_CASSANDRA_HOST", "localhost")},
		Keyspace: getEnv("TEST_CASSANDRA_KEYSPACE", "senser_test"),
		LocalDC:  getEnv("TEST_CASSANDRA_DC", "datacenter1"),
	}
	session, err := cassandra.NewSession(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to Cassandra: %v", err)
		return
	}
	defer session.Close()

	ctx := context.Background()
	cql := GocqlSession{Session: session}
	require.NoError(t, EnsureCassandraSchema(ctx, cql, cfg.Keyspace))

	repo := NewCassandraReadingEventsRepository(cql, cfg.Keyspace)
	seen := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.AppendTemperature(ctx, 901, 19.5, seen))
	require.NoError(t, repo.AppendBatteryLevel(ctx, 901, domain.BatteryLow, 0.05))
	require.NoError(t, repo.AppendTypeCount(ctx, domain.SensorTypeTemperature, 901))

	samples, err := repo.ListTemperatures(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, samples)

	low, err := repo.ListBatteryLevels(ctx, domain.BatteryLow)
	require.NoError(t, err)
	assert.NotEmpty(t, low)

	counts, err := repo.CountByType(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, counts)
}
