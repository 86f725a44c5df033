package domain

import "time"

// Bucket aggregation granularity of the continuous aggregate views
type Bucket string

const (
	BucketHour  Bucket = "hour"
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
	BucketYear  Bucket = "year"
)

// AggregateRefreshFloor lower bound of every continuous aggregate refresh
var AggregateRefreshFloor = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseBucket reports whether s names a supported bucket
func ParseBucket(s string) (Bucket, bool) {
	switch b := Bucket(s); b {
	case BucketHour, BucketDay, BucketWeek, BucketMonth, BucketYear:
		return b, true
	}
	return "", false
}

// ViewName "<bucket>_aggregates"
func (b Bucket) ViewName() string { return string(b) + "_aggregates" }

// Column time bucket column of the view; it is named after the bucket
func (b Bucket) Column() string { return string(b) }

// WeekStart moves t back to the Monday of its week, keeping the time of day
func WeekStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -daysSinceMonday)
}

// AggregateQuery validated aggregate request
type AggregateQuery struct {
	SensorID int64
	From     time.Time
	To       time.Time
	Bucket   Bucket
}

// AggregateRow one bucket of a continuous aggregate view
type AggregateRow struct {
	SensorID       int64     `json:"sensor_id" db:"sensor_id"`
	TimeBucket     time.Time `json:"time_bucket" db:"time_bucket"`
	AvgVelocity    *float64  `json:"avg_velocity" db:"avg_velocity"`
	AvgTemperature *float64  `json:"avg_temperature" db:"avg_temperature"`
	AvgHumidity    *float64  `json:"avg_humidity" db:"avg_humidity"`
	AvgBattery     *float64  `json:"avg_battery" db:"avg_battery"`
}
