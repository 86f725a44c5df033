package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqttcommon "senser/common/mqtt"
	"senser/internal/domain"
	"senser/internal/service"

	"go.uber.org/zap"
)

// DefaultTopic wildcard subscription matching sensors/{id}/data
const DefaultTopic = "sensors/+/data"

// Subscriber the part of the MQTT client the broker needs
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
}

// ReadingBroker feeds readings published over MQTT into the same ingestion path as the HTTP API
type ReadingBroker struct {
	sensorDataService service.SensorDataService
	timeout           time.Duration
	logger            *zap.Logger
}

func NewReadingBroker(sensorDataService service.SensorDataService, timeout time.Duration, logger *zap.Logger) *ReadingBroker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReadingBroker{
		sensorDataService: sensorDataService,
		timeout:           timeout,
		logger:            logger,
	}
}

// Start subscribes to topic (DefaultTopic when empty)
func (b *ReadingBroker) Start(sub Subscriber, topic string, qos byte) error {
	if topic == "" {
		topic = DefaultTopic
	}
	if err := sub.Subscribe(topic, qos, b.HandleMessage); err != nil {
		return err
	}
	b.logger.Info("Subscribed to sensor readings", zap.String("topic", topic))
	return nil
}

// HandleMessage payload is the same JSON body POST /sensors/{id}/data accepts
func (b *ReadingBroker) HandleMessage(topic string, payload []byte) error {
	sensorID, err := SensorIDFromTopic(topic)
	if err != nil {
		return err
	}

	var reading domain.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("failed to unmarshal reading on %s: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.sensorDataService.RecordReading(ctx, sensorID, &reading); err != nil {
		b.logger.Warn("MQTT reading rejected",
			zap.String("topic", topic),
			zap.Int64("sensor_id", sensorID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// SensorIDFromTopic parses sensors/{id}/data
func SensorIDFromTopic(topic string) (int64, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "sensors" || parts[2] != "data" {
		return 0, fmt.Errorf("unexpected topic %q", topic)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid sensor id in topic %q", topic)
	}
	return id, nil
}
