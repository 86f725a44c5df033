package service

import (
	"context"
	"sync"
	"time"

	"senser/internal/domain"
	"senser/internal/repository"
	"senser/internal/store"

	"github.com/stretchr/testify/mock"
)

// MockSensorsRepository testify mock of repository.SensorsRepository
type MockSensorsRepository struct {
	mock.Mock
}

func (m *MockSensorsRepository) ListSensors(ctx context.Context, skip, limit int) ([]*domain.Sensor, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Sensor), args.Error(1)
}

func (m *MockSensorsRepository) GetSensor(ctx context.Context, id int64) (*domain.Sensor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sensor), args.Error(1)
}

func (m *MockSensorsRepository) GetSensorByName(ctx context.Context, name string) (*domain.Sensor, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sensor), args.Error(1)
}

func (m *MockSensorsRepository) CreateSensor(ctx context.Context, name string) (*domain.Sensor, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sensor), args.Error(1)
}

func (m *MockSensorsRepository) DeleteSensor(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.SensorsRepository = (*MockSensorsRepository)(nil)

// fakeKV in-memory store.KV that records every call
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	calls   []string
	failSet error
	failGet error
	failDel error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get "+key)
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "set "+key)
	if f.failSet != nil {
		return f.failSet
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "del "+key)
	if f.failDel != nil {
		return f.failDel
	}
	delete(f.data, key)
	return nil
}

// fakeProfiles in-memory repository.ProfilesRepository
type fakeProfiles struct {
	profiles   map[int64]*domain.SensorProfile
	near       []*domain.SensorProfile
	calls      []string
	failUpsert error
	failDelete error
	failFind   error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[int64]*domain.SensorProfile{}}
}

func (f *fakeProfiles) FindOne(_ context.Context, id int64) (*domain.SensorProfile, error) {
	f.calls = append(f.calls, "find")
	if f.failFind != nil {
		return nil, f.failFind
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) FindNear(_ context.Context, _, _, _ float64) ([]*domain.SensorProfile, error) {
	f.calls = append(f.calls, "near")
	return f.near, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *domain.SensorProfile) error {
	f.calls = append(f.calls, "upsert")
	if f.failUpsert != nil {
		return f.failUpsert
	}
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id int64) error {
	f.calls = append(f.calls, "delete")
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfiles) EnsureGeoIndex(context.Context) error {
	f.calls = append(f.calls, "index")
	return nil
}

// fakeEvents records projection writes and serves canned scans
type fakeEvents struct {
	temperatures []domain.TemperatureSample
	batteries    []domain.BatterySample
	typeCounts   []domain.TypeCount

	appendedTemps   []domain.TemperatureSample
	appendedBattery []domain.BatterySample
	appendedTypes   []string
	failTemperature error
	failBattery     error
	failTypeCount   error
	failScan        error
}

func (f *fakeEvents) AppendTemperature(_ context.Context, id int64, temp float64, lastSeen time.Time) error {
	if f.failTemperature != nil {
		return f.failTemperature
	}
	f.appendedTemps = append(f.appendedTemps, domain.TemperatureSample{SensorID: id, Temperature: temp, LastSeen: lastSeen})
	return nil
}

func (f *fakeEvents) AppendBatteryLevel(_ context.Context, id int64, r domain.BatteryRange, level float64) error {
	if f.failBattery != nil {
		return f.failBattery
	}
	f.appendedBattery = append(f.appendedBattery, domain.BatterySample{SensorID: id, BatteryRange: r, BatteryLevel: level})
	return nil
}

func (f *fakeEvents) AppendTypeCount(_ context.Context, sensorType string, _ int64) error {
	if f.failTypeCount != nil {
		return f.failTypeCount
	}
	f.appendedTypes = append(f.appendedTypes, sensorType)
	return nil
}

func (f *fakeEvents) ListTemperatures(context.Context) ([]domain.TemperatureSample, error) {
	return f.temperatures, f.failScan
}

func (f *fakeEvents) CountByType(context.Context) ([]domain.TypeCount, error) {
	return f.typeCounts, f.failScan
}

func (f *fakeEvents) ListBatteryLevels(_ context.Context, r domain.BatteryRange) ([]domain.BatterySample, error) {
	if f.failScan != nil {
		return nil, f.failScan
	}
	var out []domain.BatterySample
	for _, b := range f.batteries {
		if b.BatteryRange == r {
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeLedger records ledger calls
type fakeLedger struct {
	inserted    []int64
	refreshed   []domain.Bucket
	refreshTo   time.Time
	queries     []domain.AggregateQuery
	rows        []domain.AggregateRow
	failInsert  error
	failRefresh error
	failQuery   error
}

func (f *fakeLedger) InsertReading(_ context.Context, id int64, _ *domain.Reading) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	f.inserted = append(f.inserted, id)
	return nil
}

func (f *fakeLedger) RefreshAggregate(_ context.Context, b domain.Bucket, _, to time.Time) error {
	f.refreshed = append(f.refreshed, b)
	f.refreshTo = to
	return f.failRefresh
}

func (f *fakeLedger) QueryAggregate(_ context.Context, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	f.queries = append(f.queries, q)
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	if f.rows == nil {
		return []domain.AggregateRow{}, nil
	}
	return f.rows, nil
}

// fakePublisher records published events
type fakePublisher struct {
	published []*domain.ReadingRecorded
	fail      error
}

func (f *fakePublisher) PublishReadingRecorded(_ context.Context, e *domain.ReadingRecorded) error {
	if f.fail != nil {
		return f.fail
	}
	f.published = append(f.published, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func f64(v float64) *float64 { return &v }
