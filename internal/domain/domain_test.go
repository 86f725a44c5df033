package domain

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestClassifyBattery(t *testing.T) {
	tests := []struct {
		level float64
		want  BatteryRange
	}{
		{0, BatteryLow},
		{0.19, BatteryLow},
		{0.2, BatteryNormal},
		{0.49, BatteryNormal},
		{0.5, BatteryHigh},
		{1, BatteryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBattery(tt.level), "level %v", tt.level)
	}
}

func TestWeekStart(t *testing.T) {
	// 2024-03-07 is a Thursday
	thu := time.Date(2024, 3, 7, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 13, 45, 0, 0, time.UTC), WeekStart(thu))

	sun := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), WeekStart(sun))

	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, WeekStart(mon))
}

func TestParseBucket(t *testing.T) {
	for _, s := range []string{"hour", "day", "week", "month", "year"} {
		b, ok := ParseBucket(s)
		assert.True(t, ok, s)
		assert.Equal(t, s+"_aggregates", b.ViewName())
		assert.Equal(t, s, b.Column())
	}
	for _, s := range []string{"", "minute", "Day", "day; DROP TABLE sensors"} {
		_, ok := ParseBucket(s)
		assert.False(t, ok, s)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-03-01T10:00:00Z",
		"2024-03-01T10:00:00.000Z",
		"2024-03-01T11:00:00+01:00",
		"2024-03-01T10:00:00",
		"2024-03-01 10:00:00",
		" 2024-03-01T10:00:00.000000 ",
		"2024-03-01T11:00:00 01:00",
		"2024-03-01T11:00:00.000 01:00",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s parsed as %s", s, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestReading_Validate(t *testing.T) {
	ok := Reading{BatteryLevel: f64(0.5), LastSeen: "2024-03-01T10:00:00Z"}
	assert.NoError(t, ok.Validate())

	noBattery := Reading{LastSeen: "2024-03-01T10:00:00Z"}
	err := noBattery.Validate()
	assert.True(t, IsInvalidArgument(err))
	assert.Equal(t, "battery_level is required", UserMessage(err))

	noLastSeen := Reading{BatteryLevel: f64(0.5)}
	assert.True(t, IsInvalidArgument(noLastSeen.Validate()))

	badLastSeen := Reading{BatteryLevel: f64(0.5), LastSeen: "01/03/2024"}
	assert.True(t, IsInvalidArgument(badLastSeen.Validate()))
}

func TestReading_SensorTypeAndBattery(t *testing.T) {
	temp := Reading{Temperature: f64(21), BatteryLevel: f64(0.1)}
	assert.Equal(t, SensorTypeTemperature, temp.SensorType())
	assert.Equal(t, BatteryLow, temp.BatteryRange())

	vel := Reading{Velocity: f64(3), BatteryLevel: f64(0.9)}
	assert.Equal(t, SensorTypeVelocity, vel.SensorType())
	assert.Equal(t, BatteryHigh, vel.BatteryRange())
}

func TestReading_JSONKeepsNulls(t *testing.T) {
	data, err := json.Marshal(Reading{Temperature: f64(21.5), BatteryLevel: f64(0.8), LastSeen: "2024-03-01T10:00:00Z"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"velocity":null,"temperature":21.5,"humidity":null,"battery_level":0.8,"last_seen":"2024-03-01T10:00:00Z"}`, string(data))
}

func TestSensorCreate_Validate(t *testing.T) {
	c := SensorCreate{Name: "  s1  ", Latitude: 41.4, Longitude: 2.1}
	require.NoError(t, c.Validate())
	assert.Equal(t, "s1", c.Name)

	for _, bad := range []SensorCreate{
		{Name: " "},
		{Name: "s", Latitude: 90.1},
		{Name: "s", Longitude: -180.5},
	} {
		assert.True(t, IsInvalidArgument(bad.Validate()), "%+v", bad)
	}
}

func TestSensorCreate_Profile(t *testing.T) {
	c := SensorCreate{Name: "s1", Latitude: 1.9, Longitude: 2.1, Type: "Temperatura"}
	p := c.Profile(7)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Point", p.Location.Type)
	assert.Equal(t, []float64{2.1, 1.9}, p.Location.Coordinates)

	fields := p.Fields()
	assert.Equal(t, 1.9, fields.Latitude)
	assert.Equal(t, 2.1, fields.Longitude)
}

func TestSensorView_JSON(t *testing.T) {
	s := &Sensor{ID: 1, Name: "s1"}

	data, err := json.Marshal(NewSensorView(s, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"s1"}`, string(data))

	data, err = json.Marshal(NewSensorView(s, &SensorProfile{Location: NewGeoPoint(2.1, 1.9), Type: "Velocitat"}))
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1.9, got["latitude"])
	assert.Equal(t, 2.1, got["longitude"])
	assert.Equal(t, "Velocitat", got["type"])
	assert.Equal(t, "s1", got["name"])

	data, err = json.Marshal(NewSensorReadingView(s, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"s1"}`, string(data))
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewError(ErrNotFound, "Sensor not found"), http.StatusNotFound},
		{NewError(ErrInvalidArgument, "bad"), http.StatusBadRequest},
		{NewError(ErrAlreadyExists, MsgDuplicateName), http.StatusBadRequest},
		{Wrap(ErrWriteFailure, errors.New("io"), "Failed to insert sensor profile"), http.StatusInternalServerError},
		{Wrap(ErrInternal, errors.New("io"), "failed"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}

	wrapped := Wrap(ErrWriteFailure, errors.New("connection reset"), "Failed to delete sensor data in cache")
	assert.True(t, IsWriteFailure(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "Failed to delete sensor data in cache", UserMessage(wrapped))
	assert.Equal(t, "internal error", UserMessage(errors.New("pq: password authentication failed")))
	assert.True(t, IsAlreadyExists(NewError(ErrAlreadyExists, MsgDuplicateName)))
	assert.True(t, IsInternal(Wrap(ErrInternal, errors.New("x"), "y")))
}
