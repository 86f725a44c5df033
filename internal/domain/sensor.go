package domain

import "strings"

// Sensor identity (relational sensors table), system of record for id/name
type Sensor struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// GeoPoint GeoJSON point, coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 1 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// SensorProfile descriptive document (one per sensor, keyed by Sensor.ID)
type SensorProfile struct {
	ID              int64    `bson:"id"`
	Location        GeoPoint `bson:"location"`
	Type            string   `bson:"type"`
	MacAddress      string   `bson:"mac_address"`
	Manufacturer    string   `bson:"manufacturer"`
	Model           string   `bson:"model"`
	SerieNumber     string   `bson:"serie_number"`
	FirmwareVersion string   `bson:"firmware_version"`
	Description     string   `bson:"description"`
}

// ProfileFields flattened profile as exposed by the API
type ProfileFields struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Type            string  `json:"type"`
	MacAddress      string  `json:"mac_address"`
	Manufacturer    string  `json:"manufacturer"`
	Model           string  `json:"model"`
	SerieNumber     string  `json:"serie_number"`
	FirmwareVersion string  `json:"firmware_version"`
	Description     string  `json:"description"`
}

// Fields flattens p; nil profile gives nil so views omit the profile block
func (p *SensorProfile) Fields() *ProfileFields {
	if p == nil {
		return nil
	}
	return &ProfileFields{
		Latitude:        p.Location.Latitude(),
		Longitude:       p.Location.Longitude(),
		Type:            p.Type,
		MacAddress:      p.MacAddress,
		Manufacturer:    p.Manufacturer,
		Model:           p.Model,
		SerieNumber:     p.SerieNumber,
		FirmwareVersion: p.FirmwareVersion,
		Description:     p.Description,
	}
}

// SensorCreate registration payload
type SensorCreate struct {
	Name            string  `json:"name"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
	Type            string  `json:"type"`
	MacAddress      string  `json:"mac_address"`
	Manufacturer    string  `json:"manufacturer"`
	Model           string  `json:"model"`
	SerieNumber     string  `json:"serie_number"`
	FirmwareVersion string  `json:"firmware_version"`
	Description     string  `json:"description"`
}

// Validate trims the name and checks coordinate ranges
func (c *SensorCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return NewError(ErrInvalidArgument, "name is required")
	}
	if err := ValidateCoordinates(c.Latitude, c.Longitude); err != nil {
		return err
	}
	return nil
}

// Profile builds the document for the sensor created with id
func (c SensorCreate) Profile(id int64) *SensorProfile {
	return &SensorProfile{
		ID:              id,
		Location:        NewGeoPoint(c.Longitude, c.Latitude),
		Type:            c.Type,
		MacAddress:      c.MacAddress,
		Manufacturer:    c.Manufacturer,
		Model:           c.Model,
		SerieNumber:     c.SerieNumber,
		FirmwareVersion: c.FirmwareVersion,
		Description:     c.Description,
	}
}

// RegisteredSensor registration response: generated id plus the submitted fields
type RegisteredSensor struct {
	ID int64 `json:"id"`
	SensorCreate
}

func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return NewError(ErrInvalidArgument, "latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return NewError(ErrInvalidArgument, "longitude must be between -180 and 180")
	}
	return nil
}
