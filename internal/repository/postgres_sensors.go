package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"senser/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresSensorsRepository sensors table; the SQL also runs on sqlite for local dev
type PostgresSensorsRepository struct {
	db *sqlx.DB
}

func NewPostgresSensorsRepository(db *sqlx.DB) *PostgresSensorsRepository {
	return &PostgresSensorsRepository{db: db}
}

var _ SensorsRepository = (*PostgresSensorsRepository)(nil)

func (r *PostgresSensorsRepository) ListSensors(ctx context.Context, skip, limit int) ([]*domain.Sensor, error) {
	sensors := []*domain.Sensor{}
	err := r.db.SelectContext(ctx, &sensors,
		`SELECT id, name FROM sensors ORDER BY id LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	return sensors, nil
}

func (r *PostgresSensorsRepository) GetSensor(ctx context.Context, id int64) (*domain.Sensor, error) {
	var s domain.Sensor
	err := r.db.GetContext(ctx, &s, `SELECT id, name FROM sensors WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get sensor: %w", err)
	}
	return &s, nil
}

func (r *PostgresSensorsRepository) GetSensorByName(ctx context.Context, name string) (*domain.Sensor, error) {
	var s domain.Sensor
	err := r.db.GetContext(ctx, &s, `SELECT id, name FROM sensors WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get sensor by name: %w", err)
	}
	return &s, nil
}

func (r *PostgresSensorsRepository) CreateSensor(ctx context.Context, name string) (*domain.Sensor, error) {
	s := domain.Sensor{Name: name}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO sensors (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}
	return &s, nil
}

func (r *PostgresSensorsRepository) DeleteSensor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// isUniqueViolation covers lib/pq (23505) plus the pgx and sqlite error texts
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
