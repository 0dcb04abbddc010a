package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// TelemetryParser handles parsing of telemetry data from various sources
type TelemetryParser struct{}

// NewTelemetryParser creates a new instance of TelemetryParser
func NewTelemetryParser() *TelemetryParser {
	return &TelemetryParser{}
}

// ParseTelemetryJSON parses a JSON payload from a field device
func (tp *TelemetryParser) ParseTelemetryJSON(payload []byte, assetID string) (*models.Reading, error) {
	var data models.TelemetryData

	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse telemetry JSON: %w", err)
	}

	// Asset ID from the topic wins over the payload
	if assetID == "" {
		assetID = data.AssetID
	}

	reading := &models.Reading{
		AssetID:    assetID,
		SensorType: models.SensorType(data.SensorType),
		Value:      data.Value,
		Unit:       data.Unit,
		Timestamp:  time.Now(),
	}

	if !reading.ValidateReading() {
		return nil, fmt.Errorf("invalid telemetry reading: asset=%q sensor=%q value=%.2f",
			reading.AssetID, reading.SensorType, reading.Value)
	}

	return reading, nil
}

// ParseTelemetryString parses comma-separated telemetry values (fallback format)
// Expected format: "asset_id,sensor_type,value"
func (tp *TelemetryParser) ParseTelemetryString(payload string, assetID string) (*models.Reading, error) {
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("failed to parse telemetry string: expected 3 values (asset_id,sensor_type,value), got %d", len(parts))
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse telemetry value %q: %w", parts[2], err)
	}

	// Asset ID from the topic wins over the payload
	if assetID == "" {
		assetID = strings.TrimSpace(parts[0])
	}

	reading := &models.Reading{
		AssetID:    assetID,
		SensorType: models.SensorType(strings.TrimSpace(parts[1])),
		Value:      value,
		Timestamp:  time.Now(),
	}

	if !reading.ValidateReading() {
		return nil, fmt.Errorf("invalid telemetry reading: asset=%q sensor=%q value=%.2f",
			reading.AssetID, reading.SensorType, reading.Value)
	}

	return reading, nil
}

// FormatReading formats a telemetry reading for logging or debugging
func (tp *TelemetryParser) FormatReading(reading *models.Reading) string {
	return fmt.Sprintf("Asset: %s, Time: %s, Sensor: %s, Value: %.2f %s",
		reading.AssetID,
		reading.Timestamp.Format("2006-01-02 15:04:05"),
		reading.SensorType,
		reading.Value,
		reading.Unit)
}
