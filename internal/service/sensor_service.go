package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"senser/internal/domain"
	"senser/internal/repository"
	"senser/internal/store"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// SensorService identity + profile lifecycle and the merged sensor views
type SensorService interface {
	ListSensors(ctx context.Context, req ListSensorsRequest) ([]*domain.Sensor, error)
	RegisterSensor(ctx context.Context, req domain.SensorCreate) (*domain.RegisteredSensor, error)
	GetSensor(ctx context.Context, sensorID int64) (*domain.SensorView, error)
	DeleteSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error)
	GetSensorsNear(ctx context.Context, req GetSensorsNearRequest) ([]*domain.SensorReadingView, error)
}

type sensorService struct {
	sensorsRepo  repository.SensorsRepository
	profilesRepo repository.ProfilesRepository
	cache        store.KV
	timeout      time.Duration
	logger       *zap.Logger
}

func NewSensorService(
	sensorsRepo repository.SensorsRepository,
	profilesRepo repository.ProfilesRepository,
	cache store.KV,
	timeout time.Duration,
	logger *zap.Logger,
) SensorService {
	return &sensorService{
		sensorsRepo:  sensorsRepo,
		profilesRepo: profilesRepo,
		cache:        cache,
		timeout:      timeout,
		logger:       logger,
	}
}

// ListSensorsRequest paging; zero Limit means the default
type ListSensorsRequest struct {
	Skip  int
	Limit int
}

func (s *sensorService) ListSensors(ctx context.Context, req ListSensorsRequest) ([]*domain.Sensor, error) {
	if req.Skip < 0 || req.Limit < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "skip and limit must not be negative")
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	sensors, err := s.sensorsRepo.ListSensors(callCtx, req.Skip, limit)
	if err != nil {
		s.logger.Error("ListSensors failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to list sensors")
	}
	return sensors, nil
}

func (s *sensorService) RegisterSensor(ctx context.Context, req domain.SensorCreate) (*domain.RegisteredSensor, error) {
	// 1. validate
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. name must be free
	existing, err := s.getSensorByName(ctx, req.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("RegisterSensor name lookup failed", zap.String("name", req.Name), zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to check sensor name")
	}
	if existing != nil {
		return nil, domain.NewError(domain.ErrAlreadyExists, domain.MsgDuplicateName)
	}

	// 3. identity generates the id
	sensor, err := s.createSensor(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, domain.NewError(domain.ErrAlreadyExists, domain.MsgDuplicateName)
		}
		s.logger.Error("RegisterSensor identity insert failed", zap.String("name", req.Name), zap.Error(err))
		return nil, domain.Wrap(domain.ErrWriteFailure, err, "failed to create sensor")
	}

	// 4. profile document; the identity row stays if this fails
	upsertCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	if err := s.profilesRepo.Upsert(upsertCtx, req.Profile(sensor.ID)); err != nil {
		s.logger.Error("RegisterSensor profile insert failed, identity kept",
			zap.Int64("sensor_id", sensor.ID),
			zap.Error(err),
		)
		return nil, domain.Wrap(domain.ErrWriteFailure, err, "Failed to insert sensor profile")
	}

	s.logger.Info("Sensor registered", zap.Int64("sensor_id", sensor.ID), zap.String("name", sensor.Name))
	return &domain.RegisteredSensor{ID: sensor.ID, SensorCreate: req}, nil
}

func (s *sensorService) GetSensor(ctx context.Context, sensorID int64) (*domain.SensorView, error) {
	sensor, err := s.requireSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}

	profile, err := s.findProfile(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	return domain.NewSensorView(sensor, profile), nil
}

func (s *sensorService) DeleteSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	// 1. existence check before any store is touched
	sensor, err := s.requireSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}

	// 2. cache
	cacheCtx, cancelCache := storeContext(ctx, s.timeout)
	defer cancelCache()
	if err := s.cache.Delete(cacheCtx, store.LatestReadingKey(sensorID)); err != nil {
		s.logger.Error("DeleteSensor cache delete failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrWriteFailure, err, "Failed to delete sensor data in cache")
	}

	// 3. profile document
	docCtx, cancelDoc := storeContext(ctx, s.timeout)
	defer cancelDoc()
	if err := s.profilesRepo.Delete(docCtx, sensorID); err != nil {
		s.logger.Error("DeleteSensor profile delete failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrWriteFailure, err, "Failed to delete sensor data in document store")
	}

	// 4. system of record last
	relCtx, cancelRel := storeContext(ctx, s.timeout)
	defer cancelRel()
	if err := s.sensorsRepo.DeleteSensor(relCtx, sensorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.ErrNotFound, "Sensor not found")
		}
		s.logger.Error("DeleteSensor identity delete failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrWriteFailure, err, "failed to delete sensor")
	}

	s.logger.Info("Sensor deleted", zap.Int64("sensor_id", sensorID))
	return sensor, nil
}

// GetSensorsNearRequest radius in meters
type GetSensorsNearRequest struct {
	Latitude  float64
	Longitude float64
	Radius    float64
}

func (s *sensorService) GetSensorsNear(ctx context.Context, req GetSensorsNearRequest) ([]*domain.SensorReadingView, error) {
	if err := domain.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if req.Radius < 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, "radius must not be negative")
	}

	geoCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.profilesRepo.EnsureGeoIndex(geoCtx); err != nil {
		s.logger.Error("GetSensorsNear index creation failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to prepare geo index")
	}
	profiles, err := s.profilesRepo.FindNear(geoCtx, req.Latitude, req.Longitude, req.Radius)
	if err != nil {
		s.logger.Error("GetSensorsNear query failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to query nearby sensors")
	}

	views := make([]*domain.SensorReadingView, 0, len(profiles))
	for _, p := range profiles {
		sensor, err := s.getSensor(ctx, p.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("Skipping orphan sensor profile", zap.Int64("sensor_id", p.ID))
				continue
			}
			return nil, domain.Wrap(domain.ErrInternal, err, "failed to get sensor")
		}

		reading, err := loadLatestReading(ctx, s.cache, s.timeout, p.ID)
		if err != nil && !errors.Is(err, store.ErrMiss) {
			s.logger.Error("GetSensorsNear cache read failed", zap.Int64("sensor_id", p.ID), zap.Error(err))
			return nil, domain.Wrap(domain.ErrInternal, err, "failed to read latest reading")
		}
		views = append(views, domain.NewSensorReadingView(sensor, reading))
	}
	return views, nil
}

// requireSensor identity lookup classified for the API: missing → NotFound
func (s *sensorService) requireSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	sensor, err := s.getSensor(ctx, sensorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.ErrNotFound, "Sensor not found")
		}
		s.logger.Error("Sensor lookup failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to get sensor")
	}
	return sensor, nil
}

func (s *sensorService) getSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.sensorsRepo.GetSensor(callCtx, sensorID)
}

func (s *sensorService) getSensorByName(ctx context.Context, name string) (*domain.Sensor, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.sensorsRepo.GetSensorByName(callCtx, name)
}

func (s *sensorService) createSensor(ctx context.Context, name string) (*domain.Sensor, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.sensorsRepo.CreateSensor(callCtx, name)
}

// findProfile nil profile (no error) when the sensor has no document
func (s *sensorService) findProfile(ctx context.Context, sensorID int64) (*domain.SensorProfile, error) {
	return findProfile(ctx, s.profilesRepo, s.timeout, s.logger, sensorID)
}
