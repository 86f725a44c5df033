package domain

import (
	"strings"
	"time"
)

// Sensor type tags written to the wide-column type-count projection
const (
	SensorTypeTemperature = "Temperatura"
	SensorTypeVelocity    = "Velocitat"
)

// BatteryRange classification of battery_level
type BatteryRange string

const (
	BatteryLow    BatteryRange = "low"
	BatteryNormal BatteryRange = "normal"
	BatteryHigh   BatteryRange = "high"
)

// ClassifyBattery: <0.2 low, [0.2, 0.5) normal, otherwise high
func ClassifyBattery(level float64) BatteryRange {
	switch {
	case level < 0.2:
		return BatteryLow
	case level < 0.5:
		return BatteryNormal
	default:
		return BatteryHigh
	}
}

// Reading one sensor measurement. It is also the cached LatestReading blob,
// so absent optional fields serialize as null.
type Reading struct {
	Velocity     *float64 `json:"velocity"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	BatteryLevel *float64 `json:"battery_level"`
	LastSeen     string   `json:"last_seen"`
}

var lastSeenLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 (fractional seconds optional); zone-less input is UTC.
// A positive offset whose '+' was decoded to a space in a query string is restored.
func ParseTimestamp(s string) (time.Time, error) {
	s = restorePlusOffset(strings.TrimSpace(s))
	var lastErr error
	for _, layout := range lastSeenLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// restorePlusOffset "...T11:00:00 01:00" -> "...T11:00:00+01:00"
func restorePlusOffset(s string) string {
	n := len(s)
	if n < 6 || s[n-6] != ' ' || s[n-3] != ':' || !strings.Contains(s[:n-6], "T") {
		return s
	}
	return s[:n-6] + "+" + s[n-5:]
}

// Validate battery_level and last_seen are required
func (r *Reading) Validate() error {
	if r.BatteryLevel == nil {
		return NewError(ErrInvalidArgument, "battery_level is required")
	}
	if strings.TrimSpace(r.LastSeen) == "" {
		return NewError(ErrInvalidArgument, "last_seen is required")
	}
	if _, err := ParseTimestamp(r.LastSeen); err != nil {
		return NewError(ErrInvalidArgument, "last_seen must be an RFC 3339 timestamp")
	}
	return nil
}

// LastSeenTime parsed last_seen; call Validate first
func (r *Reading) LastSeenTime() time.Time {
	t, _ := ParseTimestamp(r.LastSeen)
	return t
}

// SensorType temperature readings are "Temperatura", everything else "Velocitat"
func (r *Reading) SensorType() string {
	if r.Temperature != nil {
		return SensorTypeTemperature
	}
	return SensorTypeVelocity
}

// BatteryRange classification of the reading's battery level
func (r *Reading) BatteryRange() BatteryRange {
	if r.BatteryLevel == nil {
		return BatteryLow
	}
	return ClassifyBattery(*r.BatteryLevel)
}

// ReadingRecorded event published after a reading is stored everywhere
type ReadingRecorded struct {
	SensorID   int64     `json:"sensor_id"`
	Type       string    `json:"type"`
	Reading    Reading   `json:"reading"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TemperatureSample row of the temperature-history projection
type TemperatureSample struct {
	SensorID    int64
	Temperature float64
	LastSeen    time.Time
}

// BatterySample row of the battery projection
type BatterySample struct {
	SensorID     int64
	BatteryRange BatteryRange
	BatteryLevel float64
}
