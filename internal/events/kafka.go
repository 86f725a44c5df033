package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"senser/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// DefaultTopic Kafka topic readings are produced to
const DefaultTopic = "sensor-readings"

// KafkaPublisher produces one message per reading, keyed by sensor id so a
// sensor's readings stay ordered within a partition.
type KafkaPublisher struct {
	producer kafkaProducer
	topic    string
}

// kafkaProducer the part of *kafka.Producer the publisher uses
type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           3,
		"linger.ms":         5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, topic), nil
}

func newKafkaPublisher(producer kafkaProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishReadingRecorded(ctx context.Context, event *domain.ReadingRecorded) error {
	data, err := json.Marshal(newEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// buffered so a late delivery report after ctx is done does not block librdkafka
	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(strconv.FormatInt(event.SensorID, 10)),
		Value: data,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce to %s: %w", p.topic, err)
	}

	select {
	case e := <-deliveryChan:
		if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery to %s failed: %w", p.topic, msg.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close flushes outstanding messages for up to 5s
func (p *KafkaPublisher) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()
	return nil
}
