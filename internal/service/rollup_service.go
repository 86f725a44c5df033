package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"senser/internal/domain"
	"senser/internal/repository"

	"go.uber.org/zap"
)

// RollupService read side of the wide-column projections
type RollupService interface {
	GetTemperatureValues(ctx context.Context) ([]*domain.TemperatureSummary, error)
	GetSensorTypeCounts(ctx context.Context) ([]domain.TypeCount, error)
	GetLowBatterySensors(ctx context.Context) ([]*domain.LowBatterySensor, error)
}

type rollupService struct {
	sensorsRepo  repository.SensorsRepository
	profilesRepo repository.ProfilesRepository
	eventsRepo   repository.ReadingEventsRepository
	timeout      time.Duration
	logger       *zap.Logger
}

func NewRollupService(
	sensorsRepo repository.SensorsRepository,
	profilesRepo repository.ProfilesRepository,
	eventsRepo repository.ReadingEventsRepository,
	timeout time.Duration,
	logger *zap.Logger,
) RollupService {
	return &rollupService{
		sensorsRepo:  sensorsRepo,
		profilesRepo: profilesRepo,
		eventsRepo:   eventsRepo,
		timeout:      timeout,
		logger:       logger,
	}
}

type temperatureAcc struct {
	max, min, sum float64
	n             int
}

func (a *temperatureAcc) add(v float64) {
	if a.n == 0 || v > a.max {
		a.max = v
	}
	if a.n == 0 || v < a.min {
		a.min = v
	}
	a.sum += v
	a.n++
}

func (s *rollupService) GetTemperatureValues(ctx context.Context) ([]*domain.TemperatureSummary, error) {
	scanCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	samples, err := s.eventsRepo.ListTemperatures(scanCtx)
	if err != nil {
		s.logger.Error("Temperature scan failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "Failed to retrieve temperature values")
	}

	bySensor := make(map[int64]*temperatureAcc)
	ids := make([]int64, 0)
	for _, sample := range samples {
		acc, ok := bySensor[sample.SensorID]
		if !ok {
			acc = &temperatureAcc{}
			bySensor[sample.SensorID] = acc
			ids = append(ids, sample.SensorID)
		}
		acc.add(sample.Temperature)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*domain.TemperatureSummary, 0, len(ids))
	for _, id := range ids {
		sensor, profile, ok, err := s.joinSensor(ctx, id)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInternal, err, "Failed to retrieve temperature values")
		}
		if !ok {
			continue
		}
		acc := bySensor[id]
		out = append(out, &domain.TemperatureSummary{
			ID:            sensor.ID,
			Name:          sensor.Name,
			ProfileFields: profile.Fields(),
			Values: []domain.TemperatureStats{{
				MaxTemperature:     acc.max,
				MinTemperature:     acc.min,
				AverageTemperature: acc.sum / float64(acc.n),
			}},
		})
	}
	return out, nil
}

func (s *rollupService) GetSensorTypeCounts(ctx context.Context) ([]domain.TypeCount, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	counts, err := s.eventsRepo.CountByType(callCtx)
	if err != nil {
		s.logger.Error("Sensor type count failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "Failed to retrieve sensor counts")
	}
	return counts, nil
}

func (s *rollupService) GetLowBatterySensors(ctx context.Context) ([]*domain.LowBatterySensor, error) {
	scanCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	samples, err := s.eventsRepo.ListBatteryLevels(scanCtx, domain.BatteryLow)
	if err != nil {
		s.logger.Error("Low battery scan failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "Failed to retrieve low battery sensor data")
	}

	out := make([]*domain.LowBatterySensor, 0, len(samples))
	for _, sample := range samples {
		sensor, profile, ok, err := s.joinSensor(ctx, sample.SensorID)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInternal, err, "Failed to retrieve low battery sensor data")
		}
		if !ok {
			continue
		}
		out = append(out, &domain.LowBatterySensor{
			ID:            sensor.ID,
			Name:          sensor.Name,
			ProfileFields: profile.Fields(),
			BatteryLevel:  sample.BatteryLevel,
		})
	}
	return out, nil
}

// joinSensor identity + profile of a projection row; ok is false for orphans
func (s *rollupService) joinSensor(ctx context.Context, sensorID int64) (*domain.Sensor, *domain.SensorProfile, bool, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	sensor, err := s.sensorsRepo.GetSensor(callCtx, sensorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Skipping projection row without sensor identity", zap.Int64("sensor_id", sensorID))
			return nil, nil, false, nil
		}
		s.logger.Error("Sensor lookup failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, nil, false, err
	}

	profile, err := findProfile(ctx, s.profilesRepo, s.timeout, s.logger, sensorID)
	if err != nil {
		return nil, nil, false, err
	}
	return sensor, profile, true, nil
}
