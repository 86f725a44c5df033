package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"senser/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducer records produced messages; deliver controls the delivery report
type fakeProducer struct {
	produced   []*kafka.Message
	produceErr error
	deliver    bool
	deliverErr error
	flushed    int
	closed     bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if p.produceErr != nil {
		return p.produceErr
	}
	p.produced = append(p.produced, msg)
	if p.deliver {
		report := *msg
		report.TopicPartition.Error = p.deliverErr
		deliveryChan <- &report
	}
	return nil
}

func (p *fakeProducer) Flush(timeoutMs int) int {
	p.flushed = timeoutMs
	return 0
}

func (p *fakeProducer) Close() { p.closed = true }

func TestKafkaPublisher_KeyAndEnvelope(t *testing.T) {
	producer := &fakeProducer{deliver: true}
	pub := newKafkaPublisher(producer, "")

	battery := 0.1
	event := &domain.ReadingRecorded{
		SensorID: 42,
		Type:     domain.SensorTypeVelocity,
		Reading:  domain.Reading{BatteryLevel: &battery, LastSeen: "2024-03-01T10:00:00Z"},
	}
	require.NoError(t, pub.PublishReadingRecorded(context.Background(), event))

	require.Len(t, producer.produced, 1)
	msg := producer.produced[0]
	assert.Equal(t, DefaultTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, "42", string(msg.Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, TypeReadingRecorded, env.Type)
	assert.Equal(t, int64(42), env.Event.SensorID)
	assert.Equal(t, "Velocitat", env.Event.Type)
	assert.Nil(t, env.Event.Reading.Temperature)
}

func TestKafkaPublisher_DeliveryFailure(t *testing.T) {
	producer := &fakeProducer{deliver: true, deliverErr: errors.New("broker down")}
	pub := newKafkaPublisher(producer, "readings")

	err := pub.PublishReadingRecorded(context.Background(), &domain.ReadingRecorded{SensorID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readings")
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaPublisher_ProduceFailure(t *testing.T) {
	producer := &fakeProducer{produceErr: errors.New("queue full")}
	pub := newKafkaPublisher(producer, "readings")

	err := pub.PublishReadingRecorded(context.Background(), &domain.ReadingRecorded{SensorID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestKafkaPublisher_CancelledContext(t *testing.T) {
	producer := &fakeProducer{}
	pub := newKafkaPublisher(producer, "readings")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.PublishReadingRecorded(ctx, &domain.ReadingRecorded{SensorID: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, producer.produced, 1)
}

func TestKafkaPublisher_CloseFlushes(t *testing.T) {
	producer := &fakeProducer{}
	pub := newKafkaPublisher(producer, "readings")

	require.NoError(t, pub.Close())
	assert.Equal(t, 5000, producer.flushed)
	assert.True(t, producer.closed)
}
