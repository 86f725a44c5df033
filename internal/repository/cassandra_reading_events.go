package repository

import (
	"context"
	"fmt"
	"time"

	"senser/internal/domain"

	"github.com/gocql/gocql"
)

// CQLSession the part of a Cassandra session the repository needs
type CQLSession interface {
	Exec(ctx context.Context, stmt string, values ...interface{}) error
	Iter(ctx context.Context, stmt string, values ...interface{}) RowIterator
}

// RowIterator row cursor; Close reports the query error, if any
type RowIterator interface {
	Scan(dest ...interface{}) bool
	Close() error
}

// GocqlSession adapts *gocql.Session to CQLSession
type GocqlSession struct {
	Session *gocql.Session
}

func (s GocqlSession) Exec(ctx context.Context, stmt string, values ...interface{}) error {
	return s.Session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (s GocqlSession) Iter(ctx context.Context, stmt string, values ...interface{}) RowIterator {
	return s.Session.Query(stmt, values...).WithContext(ctx).Iter()
}

// CassandraReadingEventsRepository writes/reads the three projections in keyspace
type CassandraReadingEventsRepository struct {
	session  CQLSession
	keyspace string
}

func NewCassandraReadingEventsRepository(session CQLSession, keyspace string) *CassandraReadingEventsRepository {
	return &CassandraReadingEventsRepository{session: session, keyspace: keyspace}
}

var _ ReadingEventsRepository = (*CassandraReadingEventsRepository)(nil)

func (r *CassandraReadingEventsRepository) table(name string) string {
	return r.keyspace + "." + name
}

func (r *CassandraReadingEventsRepository) AppendTemperature(ctx context.Context, sensorID int64, temperature float64, lastSeen time.Time) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (sensor_id, temperature, last_seen) VALUES (?, ?, ?)`,
		r.table("sensor_temperatures"))
	if err := r.session.Exec(ctx, stmt, sensorID, temperature, lastSeen); err != nil {
		return fmt.Errorf("failed to insert temperature sample: %w", err)
	}
	return nil
}

func (r *CassandraReadingEventsRepository) AppendBatteryLevel(ctx context.Context, sensorID int64, batteryRange domain.BatteryRange, level float64) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (battery_range, sensor_id, battery_level) VALUES (?, ?, ?)`,
		r.table("sensors_low_battery"))
	if err := r.session.Exec(ctx, stmt, string(batteryRange), sensorID, level); err != nil {
		return fmt.Errorf("failed to insert battery sample: %w", err)
	}
	return nil
}

func (r *CassandraReadingEventsRepository) AppendTypeCount(ctx context.Context, sensorType string, sensorID int64) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (sensor_type, sensor_id) VALUES (?, ?)`,
		r.table("sensor_counts"))
	if err := r.session.Exec(ctx, stmt, sensorType, sensorID); err != nil {
		return fmt.Errorf("failed to insert sensor type count: %w", err)
	}
	return nil
}

func (r *CassandraReadingEventsRepository) ListTemperatures(ctx context.Context) ([]domain.TemperatureSample, error) {
	stmt := fmt.Sprintf(`SELECT sensor_id, temperature, last_seen FROM %s`, r.table("sensor_temperatures"))
	iter := r.session.Iter(ctx, stmt)

	var (
		out    []domain.TemperatureSample
		sample domain.TemperatureSample
	)
	for iter.Scan(&sample.SensorID, &sample.Temperature, &sample.LastSeen) {
		out = append(out, sample)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to scan temperature samples: %w", err)
	}
	return out, nil
}

func (r *CassandraReadingEventsRepository) CountByType(ctx context.Context) ([]domain.TypeCount, error) {
	stmt := fmt.Sprintf(`SELECT sensor_type, COUNT(sensor_id) AS quantity FROM %s GROUP BY sensor_type`,
		r.table("sensor_counts"))
	iter := r.session.Iter(ctx, stmt)

	out := []domain.TypeCount{}
	var tc domain.TypeCount
	for iter.Scan(&tc.Type, &tc.Quantity) {
		out = append(out, tc)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to count sensor types: %w", err)
	}
	return out, nil
}

func (r *CassandraReadingEventsRepository) ListBatteryLevels(ctx context.Context, batteryRange domain.BatteryRange) ([]domain.BatterySample, error) {
	stmt := fmt.Sprintf(`SELECT sensor_id, battery_level FROM %s WHERE battery_range = ?`,
		r.table("sensors_low_battery"))
	iter := r.session.Iter(ctx, stmt, string(batteryRange))

	var (
		out    []domain.BatterySample
		sample = domain.BatterySample{BatteryRange: batteryRange}
	)
	for iter.Scan(&sample.SensorID, &sample.BatteryLevel) {
		out = append(out, sample)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to scan battery samples: %w", err)
	}
	return out, nil
}
