package models

import (
	"fmt"
	"time"
)

// PredictionType identifies which scoring path produced a prediction
type PredictionType string

const (
	PredictionAnomaly       PredictionType = "anomaly"
	PredictionFailure       PredictionType = "failure"
	PredictionRemainingLife PredictionType = "remaining_life"
	PredictionDegradation   PredictionType = "degradation"
)

// PredictionStatus is the lifecycle state of a prediction
type PredictionStatus string

const (
	StatusNew              PredictionStatus = "new"
	StatusAcknowledged     PredictionStatus = "acknowledged"
	StatusWorkOrderCreated PredictionStatus = "work_order_created"
	StatusDismissed        PredictionStatus = "dismissed"
	StatusFalsePositive    PredictionStatus = "false_positive"
	StatusResolved         PredictionStatus = "resolved"
)

// IsOpen reports whether the prediction still counts against the
// one-open-prediction-per-(asset, type) invariant
func (s PredictionStatus) IsOpen() bool {
	return s == StatusNew || s == StatusAcknowledged
}

// IsTerminal reports whether no further transitions are allowed
func (s PredictionStatus) IsTerminal() bool {
	return s == StatusDismissed || s == StatusFalsePositive || s == StatusResolved
}

// IsValid reports whether s is one of the known lifecycle states
func (s PredictionStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusAcknowledged, StatusWorkOrderCreated,
		StatusDismissed, StatusFalsePositive, StatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Re-requesting the current state is handled by the lifecycle manager as an
// idempotent no-op, not here.
func (s PredictionStatus) CanTransitionTo(next PredictionStatus) bool {
	switch next {
	case StatusAcknowledged:
		return s == StatusNew
	case StatusWorkOrderCreated:
		return s.IsOpen()
	case StatusDismissed, StatusFalsePositive:
		return s.IsOpen()
	case StatusResolved:
		return s == StatusWorkOrderCreated
	default:
		return false
	}
}

// Factor is one weighted input that contributed to a prediction. Factors are
// immutable once attached to a prediction.
type Factor struct {
	Name         string   `json:"name"`
	Value        float64  `json:"value"`
	Threshold    *float64 `json:"threshold,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Contribution float64  `json:"contribution"` // percentage weight, 0-100
	Description  string   `json:"description,omitempty"`
}

// ValidateFactors checks that each contribution is a percentage and that the
// set does not claim more than 100% of the prediction between them
func ValidateFactors(factors []Factor) error {
	total := 0.0
	for _, f := range factors {
		if f.Contribution < 0 || f.Contribution > 100 {
			return fmt.Errorf("factor %q contribution %.1f is outside 0-100", f.Name, f.Contribution)
		}
		total += f.Contribution
	}
	if total > 100 {
		return fmt.Errorf("factor contributions sum to %.1f, must not exceed 100", total)
	}
	return nil
}

// Prediction represents one actionable prediction produced by a scoring run
// for an asset, tracked through human disposition.
type Prediction struct {
	ID                string           `json:"id"`
	TenantID          string           `json:"tenant_id"`
	AssetID           string           `json:"asset_id"`
	PredictionType    PredictionType   `json:"prediction_type"`
	PredictionText    string           `json:"prediction_text"`
	Probability       float64          `json:"probability"` // 0-100
	Confidence        float64          `json:"confidence"`  // 0-100
	PredictedDate     *time.Time       `json:"predicted_date,omitempty"`
	RemainingLifeDays *int             `json:"remaining_life_days,omitempty"`
	RiskLevel         RiskLevel        `json:"risk_level"`
	Status            PredictionStatus `json:"status"`
	Factors           []Factor         `json:"factors"`
	RecommendedAction string           `json:"recommended_action,omitempty"`
	EstimatedCost     *float64         `json:"estimated_cost,omitempty"`
	PotentialSavings  *float64         `json:"potential_savings,omitempty"`
	WorkOrderRef      string           `json:"work_order_ref,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// OpenKey returns the identity under which the at-most-one-open-prediction
// invariant is enforced
func (p *Prediction) OpenKey() string {
	return p.TenantID + "|" + p.AssetID + "|" + string(p.PredictionType)
}
