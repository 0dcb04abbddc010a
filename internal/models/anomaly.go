package models

import (
	"time"
)

// Anomaly represents a statistically significant deviation detected in a
// single sensor stream. Read-only after creation.
type Anomaly struct {
	ID         int        `json:"id"`
	TenantID   string     `json:"tenant_id"`
	AssetID    string     `json:"asset_id"`
	SensorType SensorType `json:"sensor_type"`
	Value      float64    `json:"value"`
	ZScore     float64    `json:"z_score"`
	Severity   RiskLevel  `json:"severity"`
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"message,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsStale returns true if the anomaly is older than the given duration
func (a *Anomaly) IsStale(d time.Duration) bool {
	return time.Since(a.Timestamp) > d
}
