package repository

import (
	"context"
	"errors"

	"senser/internal/domain"
)

// ErrProfileNotFound no profile document exists for the sensor id
var ErrProfileNotFound = errors.New("sensor profile not found")

// ProfilesRepository document store of descriptive/geo sensor profiles
type ProfilesRepository interface {
	FindOne(ctx context.Context, sensorID int64) (*domain.SensorProfile, error)

	// FindNear profiles within radiusMeters of (longitude, latitude), nearest first
	FindNear(ctx context.Context, latitude, longitude, radiusMeters float64) ([]*domain.SensorProfile, error)

	// Upsert writes the single profile document of p.ID
	Upsert(ctx context.Context, p *domain.SensorProfile) error

	// Delete is a no-op when no document exists
	Delete(ctx context.Context, sensorID int64) error

	// EnsureGeoIndex idempotently creates the 2dsphere index on location
	EnsureGeoIndex(ctx context.Context) error
}
