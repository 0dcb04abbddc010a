package models

import (
	"time"
)

// SensorType identifies which physical quantity a reading carries
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorVibration   SensorType = "vibration"
	SensorPressure    SensorType = "pressure"
	SensorCurrent     SensorType = "current"
	SensorRuntime     SensorType = "runtime_hours"
)

// Reading represents a single immutable telemetry sample for one asset sensor.
// Readings for a given (asset_id, sensor_type) stream arrive in time order.
type Reading struct {
	AssetID    string     `json:"asset_id"`
	SensorType SensorType `json:"sensor_type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// TelemetryData represents the raw JSON structure received from field devices
type TelemetryData struct {
	AssetID    string  `json:"asset_id"`
	SensorType string  `json:"sensor_type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
}

// ValidateReading checks if the reading is usable for scoring
func (r *Reading) ValidateReading() bool {
	if r.AssetID == "" || r.SensorType == "" {
		return false
	}
	// Runtime counters can only grow from zero
	if r.SensorType == SensorRuntime && r.Value < 0 {
		return false
	}
	return true
}

// StreamKey returns the identity of the time-ordered stream this reading
// belongs to
func (r *Reading) StreamKey() string {
	return r.AssetID + ":" + string(r.SensorType)
}
