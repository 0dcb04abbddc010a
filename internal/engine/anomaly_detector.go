package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// AnomalyDetector flags statistically significant outliers in a single sensor
// stream against a rolling baseline window.
type AnomalyDetector struct {
	minReadings   int     // detector abstains below this window fill
	iqrMultiplier float64 // Tukey fence multiplier for the degenerate-sigma path
}

// Severity ladder on |z-score|. Below zMedium no anomaly is emitted.
const (
	zCritical = 4.0
	zHigh     = 3.0
	zMedium   = 2.0
)

// NewAnomalyDetector creates a detector with the standard policy
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{
		minReadings:   5,
		iqrMultiplier: 1.5,
	}
}

// Detect evaluates the newest reading of a time-ordered stream against the
// last windowSize readings. The baseline statistics exclude the newest point.
// Returns (nil, ErrInsufficientData) when the window is too thin, and
// (nil, nil) when the newest reading is unremarkable.
func (ad *AnomalyDetector) Detect(actor models.Actor, readings []models.Reading, windowSize int) (*models.Anomaly, error) {
	if windowSize < ad.minReadings {
		windowSize = ad.minReadings
	}
	if len(readings) > windowSize+1 {
		readings = readings[len(readings)-windowSize-1:]
	}
	if len(readings) < ad.minReadings {
		return nil, ErrInsufficientData
	}

	latest := readings[len(readings)-1]
	baseline := make([]float64, 0, len(readings)-1)
	for _, r := range readings[:len(readings)-1] {
		baseline = append(baseline, r.Value)
	}

	mean := stat.Mean(baseline, nil)
	stdDev := stat.StdDev(baseline, nil)

	if stdDev > 0 {
		zScore := (latest.Value - mean) / stdDev
		severity, anomalous := severityFromZ(math.Abs(zScore))
		if !anomalous {
			return nil, nil
		}
		return ad.newAnomaly(actor, latest, zScore, severity,
			fmt.Sprintf("%s reading %.2f deviates %.1f sigma from baseline %.2f",
				latest.SensorType, latest.Value, math.Abs(zScore), mean)), nil
	}

	// Constant baseline: z-score is undefined, fall back to Tukey fences
	return ad.detectIQR(actor, latest, baseline), nil
}

// detectIQR flags the value when it falls outside [Q1-1.5*IQR, Q3+1.5*IQR]
// over the baseline window
func (ad *AnomalyDetector) detectIQR(actor models.Actor, latest models.Reading, baseline []float64) *models.Anomaly {
	sorted := make([]float64, len(baseline))
	copy(sorted, baseline)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1

	lower := q1 - ad.iqrMultiplier*iqr
	upper := q3 + ad.iqrMultiplier*iqr
	if latest.Value >= lower && latest.Value <= upper {
		return nil
	}

	severity := ad.iqrSeverity(latest.Value, lower, upper, iqr)
	return ad.newAnomaly(actor, latest, 0, severity,
		fmt.Sprintf("%s reading %.2f is outside interquartile fences [%.2f, %.2f]",
			latest.SensorType, latest.Value, lower, upper))
}

// iqrSeverity grades by how far past the fence the value landed, in IQR
// widths. A zero IQR means the stream was perfectly constant, so any breakout
// is treated as critical.
func (ad *AnomalyDetector) iqrSeverity(value, lower, upper, iqr float64) models.RiskLevel {
	if iqr == 0 {
		return models.RiskCritical
	}
	var excess float64
	if value < lower {
		excess = (lower - value) / iqr
	} else {
		excess = (value - upper) / iqr
	}
	switch {
	case excess >= 3.0:
		return models.RiskCritical
	case excess >= 1.5:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}

func (ad *AnomalyDetector) newAnomaly(actor models.Actor, latest models.Reading, zScore float64, severity models.RiskLevel, message string) *models.Anomaly {
	return &models.Anomaly{
		TenantID:   actor.TenantID,
		AssetID:    latest.AssetID,
		SensorType: latest.SensorType,
		Value:      latest.Value,
		ZScore:     zScore,
		Severity:   severity,
		Timestamp:  latest.Timestamp,
		Message:    message,
		CreatedAt:  time.Now(),
	}
}

// severityFromZ maps |z-score| to the shared risk taxonomy
func severityFromZ(absZ float64) (models.RiskLevel, bool) {
	switch {
	case absZ >= zCritical:
		return models.RiskCritical, true
	case absZ >= zHigh:
		return models.RiskHigh, true
	case absZ >= zMedium:
		return models.RiskMedium, true
	default:
		return models.RiskLow, false
	}
}
