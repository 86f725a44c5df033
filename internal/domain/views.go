package domain

// Views are the merged API shapes. Fields are assembled identity first,
// then the secondary store; a later source wins on overlap.

// SensorView identity + document profile (profile block omitted when absent)
type SensorView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	*ProfileFields
}

func NewSensorView(s *Sensor, p *SensorProfile) *SensorView {
	return &SensorView{ID: s.ID, Name: s.Name, ProfileFields: p.Fields()}
}

// SensorReadingView identity + latest cached reading (reading block omitted when absent)
type SensorReadingView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	*Reading
}

func NewSensorReadingView(s *Sensor, r *Reading) *SensorReadingView {
	return &SensorReadingView{ID: s.ID, Name: s.Name, Reading: r}
}

// TemperatureStats per-sensor rollup of the temperature history
type TemperatureStats struct {
	MaxTemperature     float64 `json:"max_temperature"`
	MinTemperature     float64 `json:"min_temperature"`
	AverageTemperature float64 `json:"average_temperature"`
}

// TemperatureSummary identity + profile + stats
type TemperatureSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	*ProfileFields
	Values []TemperatureStats `json:"values"`
}

// TypeCount number of sensors seen per type tag
type TypeCount struct {
	Type     string `json:"type"`
	Quantity int64  `json:"quantity"`
}

// LowBatterySensor identity + profile + last reported battery level
type LowBatterySensor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	*ProfileFields
	BatteryLevel float64 `json:"battery_level"`
}
