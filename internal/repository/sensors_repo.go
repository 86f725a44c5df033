package repository

import (
	"context"
	"errors"

	"senser/internal/domain"
)

// ErrDuplicateName unique constraint on sensors.name was violated
var ErrDuplicateName = errors.New("sensor name already exists")

// SensorsRepository relational identity store (system of record for id/name).
// Lookups of a missing id/name return sql.ErrNoRows.
type SensorsRepository interface {
	ListSensors(ctx context.Context, skip, limit int) ([]*domain.Sensor, error)
	GetSensor(ctx context.Context, id int64) (*domain.Sensor, error)
	GetSensorByName(ctx context.Context, name string) (*domain.Sensor, error)

	// CreateSensor inserts a new identity and returns it with the generated id
	CreateSensor(ctx context.Context, name string) (*domain.Sensor, error)

	DeleteSensor(ctx context.Context, id int64) error
}
