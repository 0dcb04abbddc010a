package models

// RiskLevel is the single risk taxonomy shared by anomalies, predictions and
// dashboard aggregates. Keeping it closed here prevents the threshold/color
// tables in consumers from drifting apart.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank returns a comparable severity rank (higher is worse)
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether the value is one of the four known levels
func (r RiskLevel) IsValid() bool {
	return r.Rank() > 0
}
