package services

import (
	"strings"
	"testing"

	"github.com/assetiq/maintenance_backend/internal/models"
)

func TestTelemetryParser_ParseJSON(t *testing.T) {
	parser := NewTelemetryParser()
	payload := []byte(`{"asset_id":"PUMP-001","sensor_type":"temperature","value":71.4,"unit":"°C"}`)

	reading, err := parser.ParseTelemetryJSON(payload, "")
	if err != nil {
		t.Fatalf("ParseTelemetryJSON failed: %v", err)
	}
	if reading.AssetID != "PUMP-001" {
		t.Errorf("Expected asset PUMP-001, got %s", reading.AssetID)
	}
	if reading.SensorType != models.SensorTemperature {
		t.Errorf("Expected temperature sensor, got %s", reading.SensorType)
	}
	if reading.Value != 71.4 {
		t.Errorf("Expected value 71.4, got %v", reading.Value)
	}
	if reading.Unit != "°C" {
		t.Errorf("Expected unit °C, got %s", reading.Unit)
	}
	if reading.Timestamp.IsZero() {
		t.Error("Expected an ingestion timestamp")
	}
}

func TestTelemetryParser_TopicAssetIDWins(t *testing.T) {
	parser := NewTelemetryParser()
	payload := []byte(`{"asset_id":"SPOOFED","sensor_type":"vibration","value":2.2}`)

	reading, err := parser.ParseTelemetryJSON(payload, "PUMP-002")
	if err != nil {
		t.Fatalf("ParseTelemetryJSON failed: %v", err)
	}
	if reading.AssetID != "PUMP-002" {
		t.Errorf("Expected the topic asset id to win, got %s", reading.AssetID)
	}
}

func TestTelemetryParser_ParseJSON_Invalid(t *testing.T) {
	parser := NewTelemetryParser()

	if _, err := parser.ParseTelemetryJSON([]byte("not json"), ""); err == nil {
		t.Error("Expected an error for malformed JSON")
	}

	// No asset id anywhere
	if _, err := parser.ParseTelemetryJSON([]byte(`{"sensor_type":"temperature","value":5}`), ""); err == nil {
		t.Error("Expected an error for a reading without an asset id")
	}

	// Runtime counters cannot go negative
	if _, err := parser.ParseTelemetryJSON([]byte(`{"asset_id":"P","sensor_type":"runtime_hours","value":-3}`), ""); err == nil {
		t.Error("Expected an error for a negative runtime counter")
	}
}

func TestTelemetryParser_ParseString(t *testing.T) {
	parser := NewTelemetryParser()

	reading, err := parser.ParseTelemetryString("PUMP-001, pressure, 4.8", "")
	if err != nil {
		t.Fatalf("ParseTelemetryString failed: %v", err)
	}
	if reading.AssetID != "PUMP-001" {
		t.Errorf("Expected asset PUMP-001, got %s", reading.AssetID)
	}
	if reading.SensorType != models.SensorPressure {
		t.Errorf("Expected pressure sensor, got %s", reading.SensorType)
	}
	if reading.Value != 4.8 {
		t.Errorf("Expected value 4.8, got %v", reading.Value)
	}
}

func TestTelemetryParser_ParseString_Invalid(t *testing.T) {
	parser := NewTelemetryParser()

	if _, err := parser.ParseTelemetryString("PUMP-001,pressure", ""); err == nil {
		t.Error("Expected an error for too few fields")
	}
	if _, err := parser.ParseTelemetryString("PUMP-001,pressure,not-a-number", ""); err == nil {
		t.Error("Expected an error for a non-numeric value")
	}
}

func TestTelemetryParser_FormatReading(t *testing.T) {
	parser := NewTelemetryParser()

	reading, err := parser.ParseTelemetryString("PUMP-001,temperature,65.5", "")
	if err != nil {
		t.Fatalf("ParseTelemetryString failed: %v", err)
	}

	formatted := parser.FormatReading(reading)
	if !strings.Contains(formatted, "PUMP-001") || !strings.Contains(formatted, "65.50") {
		t.Errorf("Expected formatted reading to carry asset and value, got %q", formatted)
	}
}
