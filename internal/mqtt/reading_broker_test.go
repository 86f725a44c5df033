package mqtt

import (
	"context"
	"errors"
	"testing"

	mqttcommon "senser/common/mqtt"
	"senser/internal/domain"
	"senser/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSensorDataService struct {
	mock.Mock
}

func (m *MockSensorDataService) RecordReading(ctx context.Context, sensorID int64, reading *domain.Reading) error {
	return m.Called(ctx, sensorID, reading).Error(0)
}

func (m *MockSensorDataService) GetSensorData(ctx context.Context, req service.GetSensorDataRequest) (*service.GetSensorDataResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GetSensorDataResponse), args.Error(1)
}

func (m *MockSensorDataService) GetAggregate(ctx context.Context, req service.GetAggregateRequest) ([]domain.AggregateRow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregateRow), args.Error(1)
}

type fakeSubscriber struct {
	topic   string
	handler mqttcommon.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, handler mqttcommon.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return nil
}

func TestSensorIDFromTopic(t *testing.T) {
	id, err := SensorIDFromTopic("sensors/42/data")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, topic := range []string{"sensors/x/data", "sensors/0/data", "sensors/1", "devices/1/data", "sensors/1/data/extra"} {
		_, err := SensorIDFromTopic(topic)
		assert.Error(t, err, topic)
	}
}

func TestHandleMessage_RecordsReading(t *testing.T) {
	svc := &MockSensorDataService{}
	svc.On("RecordReading", mock.Anything, int64(7), mock.MatchedBy(func(r *domain.Reading) bool {
		return r.Temperature != nil && *r.Temperature == 21.5 && r.LastSeen == "2024-03-01T10:00:00Z"
	})).Return(nil)

	broker := NewReadingBroker(svc, 0, zap.NewNop())
	sub := &fakeSubscriber{}
	require.NoError(t, broker.Start(sub, "", 1))
	assert.Equal(t, DefaultTopic, sub.topic)

	err := sub.handler("sensors/7/data", []byte(`{"temperature":21.5,"battery_level":0.8,"last_seen":"2024-03-01T10:00:00Z"}`))
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandleMessage_BadPayload(t *testing.T) {
	svc := &MockSensorDataService{}
	broker := NewReadingBroker(svc, 0, zap.NewNop())

	assert.Error(t, broker.HandleMessage("sensors/7/data", []byte(`not json`)))
	assert.Error(t, broker.HandleMessage("sensors/abc/data", []byte(`{}`)))
	svc.AssertNotCalled(t, "RecordReading", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_ServiceError(t *testing.T) {
	svc := &MockSensorDataService{}
	svc.On("RecordReading", mock.Anything, int64(3), mock.Anything).
		Return(domain.NewError(domain.ErrNotFound, "Sensor not found"))

	broker := NewReadingBroker(svc, 0, zap.NewNop())
	err := broker.HandleMessage("sensors/3/data", []byte(`{"battery_level":0.5,"last_seen":"2024-03-01T10:00:00Z"}`))
	assert.True(t, domain.IsNotFound(err))

	svc.On("RecordReading", mock.Anything, int64(4), mock.Anything).Return(errors.New("boom"))
	assert.Error(t, broker.HandleMessage("sensors/4/data", []byte(`{}`)))
}
