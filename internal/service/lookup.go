package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"senser/internal/domain"
	"senser/internal/repository"
	"senser/internal/store"

	"go.uber.org/zap"
)

// Lookups shared by the services that merge several stores into one view.

// loadLatestReading returns store.ErrMiss when nothing is cached for sensorID
func loadLatestReading(ctx context.Context, kv store.KV, timeout time.Duration, sensorID int64) (*domain.Reading, error) {
	callCtx, cancel := storeContext(ctx, timeout)
	defer cancel()

	raw, err := kv.Get(callCtx, store.LatestReadingKey(sensorID))
	if err != nil {
		return nil, err
	}
	var reading domain.Reading
	if err := json.Unmarshal([]byte(raw), &reading); err != nil {
		return nil, fmt.Errorf("decode cached reading of sensor %d: %w", sensorID, err)
	}
	return &reading, nil
}

func storeLatestReading(ctx context.Context, kv store.KV, timeout time.Duration, sensorID int64, reading *domain.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	callCtx, cancel := storeContext(ctx, timeout)
	defer cancel()
	return kv.Set(callCtx, store.LatestReadingKey(sensorID), string(data), 0)
}

// findProfile nil profile (no error) when the sensor has no document
func findProfile(ctx context.Context, repo repository.ProfilesRepository, timeout time.Duration, logger *zap.Logger, sensorID int64) (*domain.SensorProfile, error) {
	callCtx, cancel := storeContext(ctx, timeout)
	defer cancel()

	profile, err := repo.FindOne(callCtx, sensorID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		logger.Error("Profile lookup failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to get sensor profile")
	}
	return profile, nil
}
