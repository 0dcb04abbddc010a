package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// LifeEstimator evaluates a two-parameter Weibull survival model against an
// asset's age in service. Models are fitted offline; this component only
// evaluates R(t) = exp(-(t/scale)^shape).
type LifeEstimator struct{}

// NewLifeEstimator creates a life estimator
func NewLifeEstimator() *LifeEstimator {
	return &LifeEstimator{}
}

// LifeEstimate is the result of a survival evaluation at a given asset age.
// Remaining life is measured to the median survival point (R = 50%).
type LifeEstimate struct {
	AgeHours           float64
	MedianLifeHours    float64
	RemainingLifeHours float64
	RemainingLifeDays  int

	shape float64
	scale float64
}

// Estimate evaluates the survival model for an asset with the given age in
// service hours. Shape or scale at or below zero is a configuration error.
func (le *LifeEstimator) Estimate(params models.ModelParameters, assetType string, ageHours float64) (*LifeEstimate, error) {
	if params.WeibullShape <= 0 || params.WeibullScale <= 0 {
		return nil, &ModelConfigurationError{
			AssetType: assetType,
			ModelType: string(models.PredictionRemainingLife),
			Reason: fmt.Sprintf("weibull shape/scale must be positive, got shape=%.3f scale=%.3f",
				params.WeibullShape, params.WeibullScale),
		}
	}
	if ageHours < 0 {
		ageHours = 0
	}

	// Median survival point, solved analytically: t* = scale * (ln 2)^(1/shape)
	median := params.WeibullScale * math.Pow(math.Ln2, 1/params.WeibullShape)

	remaining := median - ageHours
	if remaining < 0 {
		remaining = 0
	}

	return &LifeEstimate{
		AgeHours:           ageHours,
		MedianLifeHours:    median,
		RemainingLifeHours: remaining,
		RemainingLifeDays:  int(remaining / 24),
		shape:              params.WeibullShape,
		scale:              params.WeibullScale,
	}, nil
}

// Survival returns R(t) for a total age of t hours
func (e *LifeEstimate) Survival(tHours float64) float64 {
	if tHours <= 0 {
		return 1
	}
	return math.Exp(-math.Pow(tHours/e.scale, e.shape))
}

// FailureProbabilityAt returns the probability (0-1) that the asset fails
// within the next `days`, conditioned on having survived to its current age.
// Ages far beyond the characteristic life approach 1 asymptotically.
func (e *LifeEstimate) FailureProbabilityAt(days float64) float64 {
	if days <= 0 {
		return 0
	}
	horizon := days * 24
	rNow := e.Survival(e.AgeHours)
	if rNow <= 1e-12 {
		return 1
	}
	p := 1 - e.Survival(e.AgeHours+horizon)/rNow
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// PredictedFailureDate projects the calendar date of the median survival
// point from now
func (e *LifeEstimate) PredictedFailureDate(now time.Time) time.Time {
	return now.Add(time.Duration(e.RemainingLifeHours * float64(time.Hour)))
}
