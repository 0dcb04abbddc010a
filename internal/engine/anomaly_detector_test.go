package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

func testActor() models.Actor {
	return models.Actor{TenantID: "acme", ActorID: "tester"}
}

// makeStream builds a time-ordered vibration stream from raw values
func makeStream(values ...float64) []models.Reading {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	readings := make([]models.Reading, len(values))
	for i, v := range values {
		readings[i] = models.Reading{
			AssetID:    "PUMP-001",
			SensorType: models.SensorVibration,
			Value:      v,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}
	}
	return readings
}

func TestAnomalyDetector_InsufficientData(t *testing.T) {
	detector := NewAnomalyDetector()

	anomaly, err := detector.Detect(testActor(), makeStream(10, 10, 10, 10), 30)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData with 4 readings, got %v", err)
	}
	if anomaly != nil {
		t.Error("Expected no anomaly when the detector abstains")
	}
}

func TestAnomalyDetector_UnremarkableReading(t *testing.T) {
	detector := NewAnomalyDetector()

	// Baseline [8..12]: mean 10, sample stddev ~1.58. Latest 11 is well
	// inside two sigma.
	anomaly, err := detector.Detect(testActor(), makeStream(8, 9, 10, 11, 12, 11), 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly != nil {
		t.Errorf("Expected no anomaly for an in-band reading, got severity %v", anomaly.Severity)
	}
}

func TestAnomalyDetector_ZScoreSeverityLadder(t *testing.T) {
	// Baseline [8..12]: mean 10, sample stddev sqrt(2.5)
	sigma := math.Sqrt(2.5)
	cases := []struct {
		name     string
		latest   float64
		severity models.RiskLevel
	}{
		{"medium at 2.5 sigma", 10 + 2.5*sigma, models.RiskMedium},
		{"high at 3.5 sigma", 10 + 3.5*sigma, models.RiskHigh},
		{"critical at 4.5 sigma", 10 + 4.5*sigma, models.RiskCritical},
		{"negative deviation graded the same", 10 - 3.5*sigma, models.RiskHigh},
	}

	detector := NewAnomalyDetector()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			anomaly, err := detector.Detect(testActor(), makeStream(8, 9, 10, 11, 12, tc.latest), 5)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if anomaly == nil {
				t.Fatal("Expected an anomaly")
			}
			if anomaly.Severity != tc.severity {
				t.Errorf("Expected severity %v, got %v (z=%.2f)", tc.severity, anomaly.Severity, anomaly.ZScore)
			}
		})
	}
}

func TestAnomalyDetector_ZScoreSignPreserved(t *testing.T) {
	detector := NewAnomalyDetector()
	sigma := math.Sqrt(2.5)

	anomaly, err := detector.Detect(testActor(), makeStream(8, 9, 10, 11, 12, 10-3*sigma), 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly == nil {
		t.Fatal("Expected an anomaly")
	}
	if anomaly.ZScore >= 0 {
		t.Errorf("Expected negative z-score for a drop below baseline, got %.2f", anomaly.ZScore)
	}
}

func TestAnomalyDetector_ConstantBaselineFallsBackToIQR(t *testing.T) {
	detector := NewAnomalyDetector()

	// Perfectly flat baseline: sigma is zero, so the z-score path is
	// undefined. Any breakout is critical.
	anomaly, err := detector.Detect(testActor(), makeStream(10, 10, 10, 10, 10, 30), 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly == nil {
		t.Fatal("Expected an anomaly for a breakout from a constant stream")
	}
	if anomaly.Severity != models.RiskCritical {
		t.Errorf("Expected critical severity on a zero-IQR breakout, got %v", anomaly.Severity)
	}
	if anomaly.ZScore != 0 {
		t.Errorf("Expected zero z-score on the IQR path, got %.2f", anomaly.ZScore)
	}
}

func TestAnomalyDetector_ConstantBaselineConstantReading(t *testing.T) {
	detector := NewAnomalyDetector()

	anomaly, err := detector.Detect(testActor(), makeStream(10, 10, 10, 10, 10, 10), 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly != nil {
		t.Error("Expected no anomaly when the reading matches a constant baseline")
	}
}

func TestAnomalyDetector_IQRSeverityGrading(t *testing.T) {
	detector := NewAnomalyDetector()

	cases := []struct {
		name     string
		value    float64
		severity models.RiskLevel
	}{
		// fences [lower, upper] = [5, 25], iqr = 10
		{"just past the fence", 26, models.RiskMedium},
		{"1.5 widths past the fence", 40, models.RiskHigh},
		{"3 widths past the fence", 55, models.RiskCritical},
		{"far below the lower fence", -26, models.RiskCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			severity := detector.iqrSeverity(tc.value, 5, 25, 10)
			if severity != tc.severity {
				t.Errorf("Expected %v for value %.1f, got %v", tc.severity, tc.value, severity)
			}
		})
	}

	if got := detector.iqrSeverity(11, 10, 10, 0); got != models.RiskCritical {
		t.Errorf("Expected critical for any breakout when IQR is zero, got %v", got)
	}
}

func TestAnomalyDetector_WindowTrimsOldReadings(t *testing.T) {
	detector := NewAnomalyDetector()

	// The leading extreme value is outside the window and must not skew
	// the baseline.
	anomaly, err := detector.Detect(testActor(), makeStream(1000, 8, 9, 10, 11, 12, 10.5), 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly != nil {
		t.Errorf("Expected old out-of-window reading to be ignored, got anomaly with z=%.2f", anomaly.ZScore)
	}
}

func TestAnomalyDetector_AnomalyCarriesStreamIdentity(t *testing.T) {
	detector := NewAnomalyDetector()
	readings := makeStream(10, 10, 10, 10, 10, 30)

	anomaly, err := detector.Detect(testActor(), readings, 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if anomaly == nil {
		t.Fatal("Expected an anomaly")
	}

	latest := readings[len(readings)-1]
	if anomaly.TenantID != "acme" {
		t.Errorf("Expected tenant 'acme', got %q", anomaly.TenantID)
	}
	if anomaly.AssetID != latest.AssetID {
		t.Errorf("Expected asset %q, got %q", latest.AssetID, anomaly.AssetID)
	}
	if anomaly.SensorType != latest.SensorType {
		t.Errorf("Expected sensor %q, got %q", latest.SensorType, anomaly.SensorType)
	}
	if anomaly.Value != latest.Value {
		t.Errorf("Expected value %v, got %v", latest.Value, anomaly.Value)
	}
	if !anomaly.Timestamp.Equal(latest.Timestamp) {
		t.Errorf("Expected anomaly timestamp to match the reading, got %v", anomaly.Timestamp)
	}
	if anomaly.Message == "" {
		t.Error("Expected a human-readable message")
	}
}
