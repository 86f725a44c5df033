package repository

import (
	"context"
	"fmt"

	"senser/internal/domain"

	"github.com/jmoiron/sqlx"
)

// Idempotent DDL for the stores this service owns. Versioned migrations live elsewhere.

const sensorsTableSQL = `
CREATE TABLE IF NOT EXISTS sensors (
	id   SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE
)`

const sensorsTableSQLite = `
CREATE TABLE IF NOT EXISTS sensors (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
)`

var ledgerSchemaSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS timescaledb`,
	`CREATE TABLE IF NOT EXISTS sensor_data (
		sensor_id     INTEGER NOT NULL,
		velocity      DOUBLE PRECISION,
		temperature   DOUBLE PRECISION,
		humidity      DOUBLE PRECISION,
		battery_level DOUBLE PRECISION NOT NULL,
		last_seen     TIMESTAMPTZ NOT NULL
	)`,
	`SELECT create_hypertable('sensor_data', 'last_seen', if_not_exists => TRUE)`,
}

// aggregateViewSQL continuous aggregate for bucket; the bucket column carries the bucket name
func aggregateViewSQL(b domain.Bucket) string {
	return fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS %[1]s
		WITH (timescaledb.continuous) AS
		SELECT sensor_id,
		       time_bucket(INTERVAL '1 %[2]s', last_seen) AS %[2]s,
		       AVG(velocity)      AS avg_velocity,
		       AVG(temperature)   AS avg_temperature,
		       AVG(humidity)      AS avg_humidity,
		       AVG(battery_level) AS avg_battery
		FROM sensor_data
		GROUP BY sensor_id, %[2]s
		WITH NO DATA`, b.ViewName(), b.Column())
}

// AllBuckets in ascending granularity
var AllBuckets = []domain.Bucket{
	domain.BucketHour, domain.BucketDay, domain.BucketWeek, domain.BucketMonth, domain.BucketYear,
}

// EnsureSensorsSchema creates the identity table for the configured driver
func EnsureSensorsSchema(ctx context.Context, db *sqlx.DB) error {
	stmt := sensorsTableSQL
	if db.DriverName() == "sqlite" {
		stmt = sensorsTableSQLite
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create sensors table: %w", err)
	}
	return nil
}

// EnsureLedgerSchema creates the hypertable and every continuous aggregate
func EnsureLedgerSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range ledgerSchemaSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply ledger schema: %w", err)
		}
	}
	for _, b := range AllBuckets {
		if _, err := db.ExecContext(ctx, aggregateViewSQL(b)); err != nil {
			return fmt.Errorf("failed to create %s: %w", b.ViewName(), err)
		}
	}
	return nil
}

// cassandraSchemaCQL keyspace and the three reading projections
func cassandraSchemaCQL(keyspace string) []string {
	return []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {
			'class': 'SimpleStrategy', 'replication_factor': '1'
		} AND durable_writes = true`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sensor_temperatures (
			sensor_id INT,
			temperature DOUBLE,
			last_seen TIMESTAMP,
			PRIMARY KEY (sensor_id, last_seen)
		) WITH CLUSTERING ORDER BY (last_seen DESC)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sensor_counts (
			sensor_type TEXT,
			sensor_id INT,
			PRIMARY KEY (sensor_type, sensor_id)
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sensors_low_battery (
			battery_range TEXT,
			battery_level DOUBLE,
			sensor_id INT,
			PRIMARY KEY (battery_range, sensor_id)
		) WITH CLUSTERING ORDER BY (sensor_id ASC)`, keyspace),
	}
}

// EnsureCassandraSchema creates the keyspace and projection tables
func EnsureCassandraSchema(ctx context.Context, session CQLSession, keyspace string) error {
	for _, stmt := range cassandraSchemaCQL(keyspace) {
		if err := session.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply cassandra schema: %w", err)
		}
	}
	return nil
}
