package repository

import (
	"context"
	"time"

	"senser/internal/domain"
)

// ReadingEventsRepository wide-column projections of ingested readings.
// Each Append* is an independent write; there is no cross-projection transaction.
type ReadingEventsRepository interface {
	// AppendTemperature temperature-history projection, keyed (sensor_id, last_seen)
	AppendTemperature(ctx context.Context, sensorID int64, temperature float64, lastSeen time.Time) error

	// AppendBatteryLevel battery projection, keyed (battery_range, sensor_id)
	AppendBatteryLevel(ctx context.Context, sensorID int64, batteryRange domain.BatteryRange, level float64) error

	// AppendTypeCount type-count projection, keyed (sensor_type, sensor_id)
	AppendTypeCount(ctx context.Context, sensorType string, sensorID int64) error

	ListTemperatures(ctx context.Context) ([]domain.TemperatureSample, error)
	CountByType(ctx context.Context) ([]domain.TypeCount, error)
	ListBatteryLevels(ctx context.Context, batteryRange domain.BatteryRange) ([]domain.BatterySample, error)
}
