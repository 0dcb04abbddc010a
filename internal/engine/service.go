package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/assetiq/maintenance_backend/internal/assets"
	"github.com/assetiq/maintenance_backend/internal/cache"
	"github.com/assetiq/maintenance_backend/internal/lifecycle"
	"github.com/assetiq/maintenance_backend/internal/metrics"
	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/registry"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// EventSink receives engine events for live push to connected clients
type EventSink interface {
	BroadcastAnomaly(*models.Anomaly)
	BroadcastPrediction(*models.Prediction)
}

// Service runs the per-asset scoring pipeline: anomaly detection, trend
// estimation, survival evaluation and risk classification, feeding the
// prediction lifecycle. Assets score independently and may run in parallel;
// only the final IngestScore call touches shared state and the lifecycle
// manager serializes that per (asset, type).
type Service struct {
	store     store.DataStore
	registry  *registry.Registry
	lifecycle *lifecycle.Manager
	assets    assets.Registry
	cache     *cache.Cache
	events    EventSink

	detector *AnomalyDetector
	trends   *TrendEstimator
	life     *LifeEstimator

	// Scoring policy
	failureHorizonDays      float64 // horizon for the failure-probability prediction
	remainingLifeWindowDays int     // ingest remaining-life predictions inside this window
}

// NewService creates the scoring engine. cache and events may be nil.
func NewService(
	dataStore store.DataStore,
	modelRegistry *registry.Registry,
	lifecycleManager *lifecycle.Manager,
	assetRegistry assets.Registry,
	readCache *cache.Cache,
	events EventSink,
) *Service {
	return &Service{
		store:                   dataStore,
		registry:                modelRegistry,
		lifecycle:               lifecycleManager,
		assets:                  assetRegistry,
		cache:                   readCache,
		events:                  events,
		detector:                NewAnomalyDetector(),
		trends:                  NewTrendEstimator(),
		life:                    NewLifeEstimator(),
		failureHorizonDays:      30,
		remainingLifeWindowDays: 180,
	}
}

// ProcessNewReading folds a just-ingested reading into the trend state and
// triggers an asynchronous scoring run for its asset
func (s *Service) ProcessNewReading(actor models.Actor, reading *models.Reading) {
	info, err := s.assets.Resolve(reading.AssetID)
	if err != nil {
		log.Printf("⚠️  Skipping scoring for unregistered asset %s: %v", reading.AssetID, err)
		return
	}

	if model, err := s.registry.GetParameters(info.Type, models.PredictionDegradation); err == nil {
		s.trends.Update(reading.StreamKey(), reading.Value, model.Parameters.Alpha, model.Parameters.Beta)
	}

	go func() {
		if err := s.ScoreAsset(actor, reading.AssetID); err != nil {
			log.Printf("⚠️  Scoring run for %s failed: %v", reading.AssetID, err)
		}
	}()
}

// ScoreAllAssets runs the scoring pipeline for every asset with telemetry.
// A failure for one asset never stops the others.
func (s *Service) ScoreAllAssets(actor models.Actor) int {
	assetIDs := s.store.GetActiveAssets()
	metrics.ActiveAssets.Set(float64(len(assetIDs)))

	scored := 0
	for _, assetID := range assetIDs {
		if err := s.ScoreAsset(actor, assetID); err != nil {
			log.Printf("⚠️  Scoring run for %s failed: %v", assetID, err)
			continue
		}
		scored++
	}
	return scored
}

// ScoreAsset runs the synchronous scoring pipeline for one asset. All
// prediction mutation happens atomically in the final IngestScore calls, so
// a failure mid-pipeline leaves no partial state behind. Results always
// belong to the asset's owning tenant regardless of which trigger started
// the run, so scheduler, MQTT and API triggers converge on the same open
// prediction slot.
func (s *Service) ScoreAsset(actor models.Actor, assetID string) error {
	started := time.Now()
	defer func() {
		metrics.ScoringDuration.Observe(time.Since(started).Seconds())
	}()

	info, err := s.assets.Resolve(assetID)
	if err != nil {
		metrics.ScoringRuns.WithLabelValues("unknown_asset").Inc()
		return err
	}
	actor.TenantID = info.OwnerTenant()

	for _, sensor := range s.store.GetSensorTypes(assetID) {
		s.scoreSensorStream(actor, info, sensor)
	}

	if err := s.scoreSurvival(actor, info); err != nil {
		metrics.ScoringRuns.WithLabelValues("config_error").Inc()
		return err
	}

	metrics.ScoringRuns.WithLabelValues("ok").Inc()
	return nil
}

// scoreSensorStream runs anomaly detection and degradation trending for one
// sensor stream of an asset
func (s *Service) scoreSensorStream(actor models.Actor, info *models.AssetInfo, sensor models.SensorType) {
	s.detectAnomaly(actor, info, sensor)
	s.detectDegradation(actor, info, sensor)
}

func (s *Service) detectAnomaly(actor models.Actor, info *models.AssetInfo, sensor models.SensorType) {
	model, err := s.registry.GetParameters(info.Type, models.PredictionAnomaly)
	if errors.Is(err, registry.ErrModelNotFound) {
		log.Printf("⚙️  No anomaly model for asset type %q, skipping %s/%s this cycle", info.Type, info.ID, sensor)
		return
	} else if err != nil {
		log.Printf("⚠️  Anomaly model lookup failed for %s: %v", info.ID, err)
		return
	}

	windowSize := model.Parameters.WindowSize
	readings := s.store.GetRecentReadings(info.ID, sensor, windowSize+1)

	anomaly, err := s.detector.Detect(actor, readings, windowSize)
	if errors.Is(err, ErrInsufficientData) {
		// Too few readings is expected for young streams, retry next cycle
		return
	}
	if anomaly == nil {
		return
	}

	if err := s.store.SaveAnomaly(anomaly); err != nil {
		log.Printf("⚠️  Failed to save anomaly for %s/%s: %v", info.ID, sensor, err)
		return
	}

	metrics.AnomaliesDetected.WithLabelValues(string(anomaly.Severity), string(sensor)).Inc()
	s.cache.StoreAnomaly(actor.TenantID, anomaly)
	if s.events != nil {
		s.events.BroadcastAnomaly(anomaly)
	}
	log.Printf("🚨 Anomaly on %s/%s: %s (severity %s)", info.ID, sensor, anomaly.Message, anomaly.Severity)

	probability := anomalyProbability(anomaly)
	threshold := zMedium
	prediction, updated, err := s.lifecycle.IngestScore(actor, info.ID, models.PredictionAnomaly, lifecycle.ScoreInput{
		PredictionText: fmt.Sprintf("Abnormal %s behavior detected on %s: %s", sensor, info.Name, anomaly.Message),
		Probability:    probability,
		Confidence:     model.Accuracy,
		RiskLevel:      ClassifyAnomalyRisk(anomaly.Severity),
		Factors: []models.Factor{
			{
				Name:         "z_score",
				Value:        math.Abs(anomaly.ZScore),
				Threshold:    &threshold,
				Contribution: 60,
				Description:  "Deviation of the newest reading from the rolling baseline",
			},
			{
				Name:         "observed_value",
				Value:        anomaly.Value,
				Unit:         unitForSensor(sensor),
				Contribution: 40,
			},
		},
		RecommendedAction: recommendedActionForSeverity(anomaly.Severity),
	})
	if err != nil {
		log.Printf("⚠️  Failed to ingest anomaly score for %s: %v", info.ID, err)
		return
	}
	s.afterIngest(actor, prediction, updated)
}

func (s *Service) detectDegradation(actor models.Actor, info *models.AssetInfo, sensor models.SensorType) {
	model, err := s.registry.GetParameters(info.Type, models.PredictionDegradation)
	if errors.Is(err, registry.ErrModelNotFound) {
		log.Printf("⚙️  No degradation model for asset type %q, skipping %s/%s this cycle", info.Type, info.ID, sensor)
		return
	} else if err != nil {
		return
	}

	params := model.Parameters
	streamKey := info.ID + ":" + string(sensor)

	smoothed, slope, samples, ok := s.trends.Snapshot(streamKey)
	if !ok {
		// Rebuild smoothing state from the stored window after a restart
		readings := s.store.GetRecentReadings(info.ID, sensor, params.WindowSize)
		if len(readings) == 0 {
			return
		}
		smoothed, slope = s.trends.Replay(streamKey, readings, params.Alpha, params.Beta)
		samples = len(readings)
	}

	if samples < 5 || math.Abs(slope) < params.TrendThreshold {
		return
	}

	// Slope at twice the configured threshold saturates the probability
	probability := math.Min(100, 50*math.Abs(slope)/params.TrendThreshold)
	threshold := params.TrendThreshold

	prediction, updated, err := s.lifecycle.IngestScore(actor, info.ID, models.PredictionDegradation, lifecycle.ScoreInput{
		PredictionText: fmt.Sprintf("%s on %s is drifting at %.3f %s per reading", sensor, info.Name, slope, unitForSensor(sensor)),
		Probability:    probability,
		Confidence:     model.Accuracy,
		RiskLevel:      ClassifyRisk(probability),
		Factors: []models.Factor{
			{
				Name:         "trend_slope",
				Value:        slope,
				Threshold:    &threshold,
				Contribution: 70,
				Description:  "Holt-smoothed trend of the sensor stream",
			},
			{
				Name:         "smoothed_value",
				Value:        smoothed,
				Unit:         unitForSensor(sensor),
				Contribution: 30,
			},
		},
		RecommendedAction: "Schedule an inspection before the drift reaches alarm levels",
	})
	if err != nil {
		log.Printf("⚠️  Failed to ingest degradation score for %s: %v", info.ID, err)
		return
	}
	s.afterIngest(actor, prediction, updated)
}

// scoreSurvival evaluates the Weibull model for the asset and feeds the
// failure and remaining-life predictions
func (s *Service) scoreSurvival(actor models.Actor, info *models.AssetInfo) error {
	model, err := s.registry.GetParameters(info.Type, models.PredictionRemainingLife)
	if errors.Is(err, registry.ErrModelNotFound) {
		log.Printf("⚙️  No survival model for asset type %q, skipping %s this cycle", info.Type, info.ID)
		return nil
	} else if err != nil {
		return err
	}

	now := time.Now()
	age := info.AgeInServiceHours(now)

	estimate, err := s.life.Estimate(model.Parameters, info.Type, age)
	if err != nil {
		// Bad parameters are an operator problem, not a retry candidate
		log.Printf("❌ Survival model misconfigured for asset type %q: %v", info.Type, err)
		return err
	}

	failureProbability := estimate.FailureProbabilityAt(s.failureHorizonDays) * 100
	ageThreshold := estimate.MedianLifeHours

	if failureProbability >= riskMediumProbability {
		predictedDate := estimate.PredictedFailureDate(now)
		prediction, updated, err := s.lifecycle.IngestScore(actor, info.ID, models.PredictionFailure, lifecycle.ScoreInput{
			PredictionText: fmt.Sprintf("%s has a %.0f%% probability of failure within %.0f days",
				info.Name, failureProbability, s.failureHorizonDays),
			Probability:   failureProbability,
			Confidence:    model.Accuracy,
			PredictedDate: &predictedDate,
			RiskLevel:     ClassifyRisk(failureProbability),
			Factors: []models.Factor{
				{
					Name:         "age_in_service",
					Value:        age,
					Threshold:    &ageThreshold,
					Unit:         "hours",
					Contribution: 65,
					Description:  "Elapsed service age against the median survival point",
				},
				{
					Name:         "failure_probability",
					Value:        failureProbability,
					Unit:         "%",
					Contribution: 35,
				},
			},
			RecommendedAction: "Plan corrective maintenance before the predicted failure window",
		})
		if err != nil {
			return err
		}
		s.afterIngest(actor, prediction, updated)
	}

	if estimate.RemainingLifeDays <= s.remainingLifeWindowDays {
		remainingDays := estimate.RemainingLifeDays
		windowProbability := estimate.FailureProbabilityAt(float64(s.remainingLifeWindowDays)) * 100
		prediction, updated, err := s.lifecycle.IngestScore(actor, info.ID, models.PredictionRemainingLife, lifecycle.ScoreInput{
			PredictionText: fmt.Sprintf("%s has an estimated %d days of useful life remaining",
				info.Name, remainingDays),
			Probability:       windowProbability,
			Confidence:        model.Accuracy,
			RemainingLifeDays: &remainingDays,
			RiskLevel:         ClassifyRisk(windowProbability),
			Factors: []models.Factor{
				{
					Name:         "age_in_service",
					Value:        age,
					Threshold:    &ageThreshold,
					Unit:         "hours",
					Contribution: 80,
					Description:  "Elapsed service age against the median survival point",
				},
			},
			RecommendedAction: "Budget a replacement within the remaining-life window",
		})
		if err != nil {
			return err
		}
		s.afterIngest(actor, prediction, updated)
	}

	return nil
}

// afterIngest handles the shared post-ingest bookkeeping
func (s *Service) afterIngest(actor models.Actor, prediction *models.Prediction, updated bool) {
	if s.events != nil {
		s.events.BroadcastPrediction(prediction)
	}
	s.cache.InvalidateDashboard(actor.TenantID)
	if updated {
		log.Printf("🔮 Updated open %s prediction %s for %s", prediction.PredictionType, prediction.ID, prediction.AssetID)
	} else {
		log.Printf("🔮 Created %s prediction %s for %s (risk %s)",
			prediction.PredictionType, prediction.ID, prediction.AssetID, prediction.RiskLevel)
	}
}

// DashboardSummary assembles the operator dashboard, served from cache when
// fresh
func (s *Service) DashboardSummary(actor models.Actor) (*models.DashboardSummary, error) {
	if cached, ok := s.cache.GetDashboard(actor.TenantID); ok {
		return cached, nil
	}

	byRisk, err := s.store.CountOpenPredictionsByRisk(actor.TenantID)
	if err != nil {
		return nil, err
	}

	open := 0
	for _, count := range byRisk {
		open += count
	}

	anomalies24h, err := s.store.CountAnomaliesSince(actor.TenantID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	accuracy, err := s.registry.AverageAccuracy()
	if err != nil {
		return nil, err
	}

	health, err := s.assetHealthScores(actor)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		PredictionsByRisk:    byRisk,
		OpenPredictions:      open,
		AnomaliesLast24h:     anomalies24h,
		AverageModelAccuracy: accuracy,
		AssetHealth:          health,
		GeneratedAt:          time.Now(),
	}

	s.cache.StoreDashboard(actor.TenantID, summary)
	return summary, nil
}

// assetHealthScores rolls open predictions up into one 0-100 score per asset
func (s *Service) assetHealthScores(actor models.Actor) ([]models.AssetHealthScore, error) {
	riskWeights := map[models.RiskLevel]float64{
		models.RiskLow:      5,
		models.RiskMedium:   10,
		models.RiskHigh:     25,
		models.RiskCritical: 40,
	}

	var scores []models.AssetHealthScore
	for _, info := range s.assets.List() {
		open, err := s.store.GetOpenPredictionsByAsset(actor.TenantID, info.ID)
		if err != nil {
			return nil, err
		}

		score := 100.0
		worst := models.RiskLow
		for _, p := range open {
			score -= riskWeights[p.RiskLevel]
			if p.RiskLevel.Rank() > worst.Rank() {
				worst = p.RiskLevel
			}
		}
		if score < 0 {
			score = 0
		}

		scores = append(scores, models.AssetHealthScore{
			AssetID:   info.ID,
			Name:      info.Name,
			Score:     score,
			RiskLevel: worst,
		})
	}
	return scores, nil
}

// anomalyProbability derives a 0-100 probability from the anomaly evidence.
// Z-score anomalies scale linearly, saturating at four sigma; IQR-path
// anomalies fall back to the severity rank.
func anomalyProbability(a *models.Anomaly) float64 {
	if a.ZScore != 0 {
		return math.Min(100, math.Abs(a.ZScore)*25)
	}
	return float64(a.Severity.Rank()) * 25
}

func recommendedActionForSeverity(severity models.RiskLevel) string {
	switch severity {
	case models.RiskCritical:
		return "Stop the asset and inspect immediately"
	case models.RiskHigh:
		return "Inspect within 24 hours"
	case models.RiskMedium:
		return "Review at the next maintenance round"
	default:
		return "Monitor for recurrence"
	}
}

func unitForSensor(sensor models.SensorType) string {
	switch sensor {
	case models.SensorTemperature:
		return "°C"
	case models.SensorVibration:
		return "mm/s"
	case models.SensorPressure:
		return "bar"
	case models.SensorCurrent:
		return "A"
	case models.SensorRuntime:
		return "h"
	default:
		return ""
	}
}
