package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

func weibullParams(shape, scale float64) models.ModelParameters {
	p := models.DefaultParameters()
	p.WeibullShape = shape
	p.WeibullScale = scale
	return p
}

func TestLifeEstimator_MedianLife(t *testing.T) {
	le := NewLifeEstimator()

	// shape=2 scale=1000: t* = 1000 * sqrt(ln 2) = 832.55h
	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(est.MedianLifeHours-832.55) > 0.01 {
		t.Errorf("Expected median life ~832.55h, got %v", est.MedianLifeHours)
	}
	if math.Abs(est.RemainingLifeHours-est.MedianLifeHours) > 1e-9 {
		t.Errorf("Expected full remaining life at age 0, got %v", est.RemainingLifeHours)
	}
	if est.RemainingLifeDays != 34 {
		t.Errorf("Expected 34 remaining days, got %d", est.RemainingLifeDays)
	}
}

func TestLifeEstimator_RemainingLifeShrinksWithAge(t *testing.T) {
	le := NewLifeEstimator()

	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 500)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(est.RemainingLifeHours-(est.MedianLifeHours-500)) > 1e-9 {
		t.Errorf("Expected remaining life to be median minus age, got %v", est.RemainingLifeHours)
	}
}

func TestLifeEstimator_RemainingLifeClampsAtZero(t *testing.T) {
	le := NewLifeEstimator()

	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if est.RemainingLifeHours != 0 {
		t.Errorf("Expected zero remaining life past the median point, got %v", est.RemainingLifeHours)
	}
	if est.RemainingLifeDays != 0 {
		t.Errorf("Expected zero remaining days, got %d", est.RemainingLifeDays)
	}
}

func TestLifeEstimator_NegativeAgeTreatedAsNew(t *testing.T) {
	le := NewLifeEstimator()

	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", -10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if est.AgeHours != 0 {
		t.Errorf("Expected negative age clamped to 0, got %v", est.AgeHours)
	}
}

func TestLifeEstimator_InvalidParameters(t *testing.T) {
	le := NewLifeEstimator()

	for _, params := range []models.ModelParameters{
		weibullParams(0, 1000),
		weibullParams(2.0, 0),
		weibullParams(-1, -1),
	} {
		_, err := le.Estimate(params, "pump", 100)
		var cfgErr *ModelConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected ModelConfigurationError for shape=%v scale=%v, got %v",
				params.WeibullShape, params.WeibullScale, err)
			continue
		}
		if cfgErr.AssetType != "pump" {
			t.Errorf("Expected asset type in the error, got %q", cfgErr.AssetType)
		}
	}
}

func TestLifeEstimate_Survival(t *testing.T) {
	le := NewLifeEstimator()
	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := est.Survival(0); got != 1 {
		t.Errorf("Expected R(0) = 1, got %v", got)
	}
	// R(scale) = exp(-1)
	if got := est.Survival(1000); math.Abs(got-math.Exp(-1)) > 1e-9 {
		t.Errorf("Expected R(scale) = e^-1, got %v", got)
	}
	if est.Survival(500) <= est.Survival(1500) {
		t.Error("Expected survival to decrease with age")
	}
}

func TestLifeEstimate_FailureProbability(t *testing.T) {
	le := NewLifeEstimator()
	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 400)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := est.FailureProbabilityAt(0); got != 0 {
		t.Errorf("Expected zero probability over a zero horizon, got %v", got)
	}

	p30 := est.FailureProbabilityAt(30)
	p60 := est.FailureProbabilityAt(60)
	if p30 <= 0 || p30 >= 1 {
		t.Errorf("Expected 30-day probability in (0,1), got %v", p30)
	}
	if p60 <= p30 {
		t.Errorf("Expected probability to grow with the horizon: p30=%v p60=%v", p30, p60)
	}
}

func TestLifeEstimate_FailureProbabilityForExhaustedAsset(t *testing.T) {
	le := NewLifeEstimator()

	// Age far beyond the characteristic life: survival underflows and the
	// conditional probability saturates at 1.
	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 20000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := est.FailureProbabilityAt(30); got != 1 {
		t.Errorf("Expected probability 1 for an exhausted asset, got %v", got)
	}
}

func TestLifeEstimate_PredictedFailureDate(t *testing.T) {
	le := NewLifeEstimator()
	est, err := le.Estimate(weibullParams(2.0, 1000), "pump", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	want := now.Add(time.Duration(est.RemainingLifeHours * float64(time.Hour)))
	if got := est.PredictedFailureDate(now); !got.Equal(want) {
		t.Errorf("Expected failure date %v, got %v", want, got)
	}
}
