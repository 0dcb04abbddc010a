package engine

import (
	"github.com/assetiq/maintenance_backend/internal/models"
)

// Risk classification thresholds on failure probability (0-100). Documented
// and stable: tests depend on the exact boundaries.
const (
	riskCriticalProbability = 75.0
	riskHighProbability     = 50.0
	riskMediumProbability   = 25.0
)

// ClassifyRisk maps a failure probability (0-100) to the shared risk taxonomy.
// Monotonic non-decreasing in probability. Confidence is a separate axis for
// the human reviewer and never alters the classification.
func ClassifyRisk(probability float64) models.RiskLevel {
	switch {
	case probability >= riskCriticalProbability:
		return models.RiskCritical
	case probability >= riskHighProbability:
		return models.RiskHigh
	case probability >= riskMediumProbability:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// ClassifyAnomalyRisk derives the risk level for an anomaly-driven prediction.
// The anomaly's own severity passes through unchanged rather than being
// re-derived from a probability.
func ClassifyAnomalyRisk(severity models.RiskLevel) models.RiskLevel {
	if !severity.IsValid() {
		return models.RiskLow
	}
	return severity
}
