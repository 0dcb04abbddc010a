package models

import (
	"fmt"
	"time"
)

// ModelStatus is the operational state of a registered model
type ModelStatus string

const (
	ModelActive   ModelStatus = "active"
	ModelInactive ModelStatus = "inactive"
	ModelTraining ModelStatus = "training"
)

// ModelParameters holds the per-asset-type parameters the estimators run on.
// Models are fitted offline; this backend only evaluates them.
type ModelParameters struct {
	WindowSize     int     `json:"window_size"`     // anomaly detector rolling window
	Alpha          float64 `json:"alpha"`           // exponential smoothing constant
	Beta           float64 `json:"beta"`            // trend smoothing constant (Holt)
	TrendThreshold float64 `json:"trend_threshold"` // slope beyond which degradation is flagged
	WeibullShape   float64 `json:"weibull_shape"`
	WeibullScale   float64 `json:"weibull_scale"` // characteristic life in service hours
}

// Validate checks the parameters are usable for scoring
func (p ModelParameters) Validate() error {
	if p.WindowSize < 5 {
		return fmt.Errorf("window size %d is below the minimum of 5", p.WindowSize)
	}
	if p.Alpha <= 0 || p.Alpha > 1 {
		return fmt.Errorf("smoothing constant alpha %.3f is outside (0, 1]", p.Alpha)
	}
	if p.Beta <= 0 || p.Beta > 1 {
		return fmt.Errorf("trend constant beta %.3f is outside (0, 1]", p.Beta)
	}
	if p.WeibullShape <= 0 || p.WeibullScale <= 0 {
		return fmt.Errorf("weibull shape/scale must be positive, got shape=%.3f scale=%.3f",
			p.WeibullShape, p.WeibullScale)
	}
	return nil
}

// Model represents a named, trained model tracked by the registry
type Model struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	AssetType          string          `json:"asset_type"`
	ModelType          PredictionType  `json:"model_type"`
	Status             ModelStatus     `json:"status"`
	Accuracy           float64         `json:"accuracy"` // 0-100
	TrainingDataPoints int             `json:"training_data_points"`
	LastTrainedAt      *time.Time      `json:"last_trained_at,omitempty"`
	Parameters         ModelParameters `json:"parameters"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultParameters is the default policy applied when seeding new models
// for an asset type that has never been trained
func DefaultParameters() ModelParameters {
	return ModelParameters{
		WindowSize:     30,
		Alpha:          0.3,
		Beta:           0.1,
		TrendThreshold: 0.5,
		WeibullShape:   2.0,
		WeibullScale:   20000, // hours
	}
}
