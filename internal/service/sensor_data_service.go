package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"senser/internal/domain"
	"senser/internal/events"
	"senser/internal/metrics"
	"senser/internal/repository"
	"senser/internal/store"

	"go.uber.org/zap"
)

// SensorDataService reading ingestion and the reading read side (latest + aggregates)
type SensorDataService interface {
	RecordReading(ctx context.Context, sensorID int64, reading *domain.Reading) error
	GetSensorData(ctx context.Context, req GetSensorDataRequest) (*GetSensorDataResponse, error)
	GetAggregate(ctx context.Context, req GetAggregateRequest) ([]domain.AggregateRow, error)
}

type sensorDataService struct {
	sensorsRepo repository.SensorsRepository
	cache       store.KV
	eventsRepo  repository.ReadingEventsRepository
	ledgerRepo  repository.ReadingLedgerRepository
	publisher   events.Publisher
	metrics     *metrics.Metrics
	timeout     time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// SensorDataDeps stores and sinks of SensorDataService. Publisher and Metrics are optional.
type SensorDataDeps struct {
	Sensors   repository.SensorsRepository
	Cache     store.KV
	Events    repository.ReadingEventsRepository
	Ledger    repository.ReadingLedgerRepository
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Timeout   time.Duration
}

func NewSensorDataService(deps SensorDataDeps, logger *zap.Logger) SensorDataService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &sensorDataService{
		sensorsRepo: deps.Sensors,
		cache:       deps.Cache,
		eventsRepo:  deps.Events,
		ledgerRepo:  deps.Ledger,
		publisher:   publisher,
		metrics:     deps.Metrics,
		timeout:     deps.Timeout,
		now:         time.Now,
		logger:      logger,
	}
}

// RecordReading writes cache, wide-column projections and ledger in that order.
// A failed step aborts the rest; earlier writes are not undone.
func (s *sensorDataService) RecordReading(ctx context.Context, sensorID int64, reading *domain.Reading) error {
	// 1. validate
	if reading == nil {
		return domain.NewError(domain.ErrInvalidArgument, "reading is required")
	}
	if err := reading.Validate(); err != nil {
		return err
	}

	// 2. identity must exist
	if _, err := s.requireSensor(ctx, sensorID); err != nil {
		return err
	}

	// 3. latest reading cache
	if err := storeLatestReading(ctx, s.cache, s.timeout, sensorID, reading); err != nil {
		s.stepFailed(metrics.StepCache, sensorID, err)
		return domain.Wrap(domain.ErrWriteFailure, err, "Failed to set data in cache")
	}

	// 4. wide-column projections
	sensorType := reading.SensorType()
	if err := s.appendHistory(ctx, sensorID, reading); err != nil {
		s.stepFailed(metrics.StepHistory, sensorID, err)
		return domain.Wrap(domain.ErrWriteFailure, err, "Failed to record sensor history")
	}
	if err := s.appendTypeCount(ctx, sensorType, sensorID); err != nil {
		s.stepFailed(metrics.StepTypeCount, sensorID, err)
		return domain.Wrap(domain.ErrWriteFailure, err, "Failed to record sensor type")
	}

	// 5. time-series ledger
	if err := s.insertLedger(ctx, sensorID, reading); err != nil {
		s.stepFailed(metrics.StepLedger, sensorID, err)
		return domain.Wrap(domain.ErrWriteFailure, err, "Failed to record sensor data")
	}

	s.metrics.ReadingRecorded()

	// 6. notify; the reading is already stored, so a failed publish is only logged
	event := &domain.ReadingRecorded{
		SensorID:   sensorID,
		Type:       sensorType,
		Reading:    *reading,
		RecordedAt: s.now().UTC(),
	}
	pubCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.PublishReadingRecorded(pubCtx, event); err != nil {
		s.metrics.PublishFailed()
		s.logger.Warn("Failed to publish reading event", zap.Int64("sensor_id", sensorID), zap.Error(err))
	}

	s.logger.Debug("Reading recorded", zap.Int64("sensor_id", sensorID), zap.String("type", sensorType))
	return nil
}

// appendHistory temperature readings go to the temperature history, all others to the battery projection
func (s *sensorDataService) appendHistory(ctx context.Context, sensorID int64, reading *domain.Reading) error {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if reading.Temperature != nil {
		return s.eventsRepo.AppendTemperature(callCtx, sensorID, *reading.Temperature, reading.LastSeenTime())
	}
	return s.eventsRepo.AppendBatteryLevel(callCtx, sensorID, reading.BatteryRange(), *reading.BatteryLevel)
}

func (s *sensorDataService) appendTypeCount(ctx context.Context, sensorType string, sensorID int64) error {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.eventsRepo.AppendTypeCount(callCtx, sensorType, sensorID)
}

func (s *sensorDataService) insertLedger(ctx context.Context, sensorID int64, reading *domain.Reading) error {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()
	return s.ledgerRepo.InsertReading(callCtx, sensorID, reading)
}

func (s *sensorDataService) stepFailed(step string, sensorID int64, err error) {
	s.metrics.StepFailed(step)
	s.logger.Error("Reading ingestion step failed, earlier steps are kept",
		zap.String("step", step),
		zap.Int64("sensor_id", sensorID),
		zap.Error(err),
	)
}

// GetSensorDataRequest From/To/Bucket are raw query values; any empty one selects the latest reading
type GetSensorDataRequest struct {
	SensorID int64
	From     string
	To       string
	Bucket   string
}

// GetSensorDataResponse exactly one of Latest and Aggregate is set
type GetSensorDataResponse struct {
	Latest    *domain.SensorReadingView
	Aggregate []domain.AggregateRow
}

func (s *sensorDataService) GetSensorData(ctx context.Context, req GetSensorDataRequest) (*GetSensorDataResponse, error) {
	// 1. identity, before either branch touches a side store
	sensor, err := s.requireSensor(ctx, req.SensorID)
	if err != nil {
		return nil, err
	}

	// 2. latest or aggregate
	if req.From == "" || req.To == "" || req.Bucket == "" {
		view, err := s.latestView(ctx, sensor)
		if err != nil {
			return nil, err
		}
		return &GetSensorDataResponse{Latest: view}, nil
	}

	rows, err := s.GetAggregate(ctx, GetAggregateRequest(req))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewError(domain.ErrNotFound, "No data found for the sensor")
	}
	return &GetSensorDataResponse{Aggregate: rows}, nil
}

// latestView identity wins over same-named fields of the cached reading
func (s *sensorDataService) latestView(ctx context.Context, sensor *domain.Sensor) (*domain.SensorReadingView, error) {
	sensorID := sensor.ID
	reading, err := loadLatestReading(ctx, s.cache, s.timeout, sensorID)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, domain.NewError(domain.ErrNotFound, "Sensor not found")
		}
		s.logger.Error("Latest reading lookup failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to read latest reading")
	}
	return domain.NewSensorReadingView(sensor, reading), nil
}

// GetAggregateRequest raw query values
type GetAggregateRequest struct {
	SensorID int64
	From     string
	To       string
	Bucket   string
}

func (s *sensorDataService) GetAggregate(ctx context.Context, req GetAggregateRequest) ([]domain.AggregateRow, error) {
	// 1. bucket
	bucket, ok := domain.ParseBucket(req.Bucket)
	if !ok {
		return nil, domain.NewError(domain.ErrInvalidArgument, "Invalid bucket size")
	}

	// 2. window
	from, err := domain.ParseTimestamp(req.From)
	if err != nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, "from must be an RFC 3339 timestamp")
	}
	to, err := domain.ParseTimestamp(req.To)
	if err != nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, "to must be an RFC 3339 timestamp")
	}
	if from.After(to) {
		return nil, domain.NewError(domain.ErrInvalidArgument, "from must not be after to")
	}
	if bucket == domain.BucketWeek {
		from = domain.WeekStart(from)
	}

	// 3. bring the view up to date
	refreshCtx, cancelRefresh := storeContext(ctx, s.timeout)
	defer cancelRefresh()
	if err := s.ledgerRepo.RefreshAggregate(refreshCtx, bucket, domain.AggregateRefreshFloor, s.now().UTC()); err != nil {
		s.logger.Error("Aggregate refresh failed",
			zap.String("view", bucket.ViewName()),
			zap.Error(err),
		)
		return nil, domain.Wrap(domain.ErrInternal, err, "Failed to refresh aggregate view")
	}

	// 4. query
	queryCtx, cancelQuery := storeContext(ctx, s.timeout)
	defer cancelQuery()
	rows, err := s.ledgerRepo.QueryAggregate(queryCtx, domain.AggregateQuery{
		SensorID: req.SensorID,
		From:     from,
		To:       to,
		Bucket:   bucket,
	})
	if err != nil {
		s.logger.Error("Aggregate query failed",
			zap.Int64("sensor_id", req.SensorID),
			zap.String("view", bucket.ViewName()),
			zap.Error(err),
		)
		return nil, domain.Wrap(domain.ErrInternal, err, "Failed to fetch aggregated data")
	}
	return rows, nil
}

func (s *sensorDataService) requireSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	sensor, err := s.sensorsRepo.GetSensor(callCtx, sensorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.ErrNotFound, "Sensor not found")
		}
		s.logger.Error("Sensor lookup failed", zap.Int64("sensor_id", sensorID), zap.Error(err))
		return nil, domain.Wrap(domain.ErrInternal, err, "failed to get sensor")
	}
	return sensor, nil
}
