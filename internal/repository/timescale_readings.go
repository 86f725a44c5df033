package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"senser/internal/domain"

	"github.com/jmoiron/sqlx"
)

const refreshTimeLayout = "2006-01-02T15:04:05.000Z"

// TimescaleReadingsRepository sensor_data hypertable and <bucket>_aggregates views
type TimescaleReadingsRepository struct {
	db *sqlx.DB
}

func NewTimescaleReadingsRepository(db *sqlx.DB) *TimescaleReadingsRepository {
	return &TimescaleReadingsRepository{db: db}
}

var _ ReadingLedgerRepository = (*TimescaleReadingsRepository)(nil)

func (r *TimescaleReadingsRepository) InsertReading(ctx context.Context, sensorID int64, reading *domain.Reading) error {
	return r.withAutocommit(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO sensor_data (sensor_id, velocity, temperature, humidity, battery_level, last_seen)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sensorID,
			reading.Velocity,
			reading.Temperature,
			reading.Humidity,
			reading.BatteryLevel,
			reading.LastSeenTime(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sensor reading: %w", err)
		}
		return nil
	})
}

// RefreshAggregate refresh_continuous_aggregate refuses to run inside a transaction
// block, so it runs in autocommit on its own connection. The view name comes from
// a validated Bucket and the window from time values, never from request text.
func (r *TimescaleReadingsRepository) RefreshAggregate(ctx context.Context, bucket domain.Bucket, from, to time.Time) error {
	stmt := fmt.Sprintf(`CALL refresh_continuous_aggregate('%s', '%s', '%s')`,
		bucket.ViewName(),
		from.UTC().Format(refreshTimeLayout),
		to.UTC().Format(refreshTimeLayout),
	)
	return r.withAutocommit(ctx, func(conn *sqlx.Conn) error {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to refresh %s: %w", bucket.ViewName(), err)
		}
		return nil
	})
}

func (r *TimescaleReadingsRepository) QueryAggregate(ctx context.Context, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	col := q.Bucket.Column()
	query := fmt.Sprintf(
		`SELECT sensor_id, %[1]s AS time_bucket, avg_velocity, avg_temperature, avg_humidity, avg_battery
		 FROM %[2]s
		 WHERE sensor_id = $1 AND %[1]s BETWEEN $2 AND $3
		 ORDER BY %[1]s`,
		col, q.Bucket.ViewName(),
	)

	rows := []domain.AggregateRow{}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, q.SensorID, q.From, q.To)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Bucket.ViewName(), err)
	}
	return rows, nil
}

// withAutocommit runs fn on a connection taken from the pool outside any
// transaction; the connection goes back to the pool on every exit path.
func (r *TimescaleReadingsRepository) withAutocommit(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// withTx runs fn in a read-only transaction that is committed on success and
// rolled back otherwise, so no transaction outlives the call.
func (r *TimescaleReadingsRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
