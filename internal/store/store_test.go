package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

func sampleReading(assetID string, sensor models.SensorType, value float64, ts time.Time) models.Reading {
	return models.Reading{
		AssetID:    assetID,
		SensorType: sensor,
		Value:      value,
		Timestamp:  ts,
	}
}

func TestStore_AddReading_Basic(t *testing.T) {
	store := NewStore(100)
	now := time.Now()

	store.AddReading(sampleReading("PUMP-001", models.SensorTemperature, 65.5, now))

	latest, ok := store.GetLatestReading("PUMP-001", models.SensorTemperature)
	if !ok {
		t.Fatal("Expected latest reading to exist")
	}
	if latest.Value != 65.5 {
		t.Errorf("Expected value 65.5, got %v", latest.Value)
	}

	if count := store.GetReadingCount(); count != 1 {
		t.Errorf("Expected reading count 1, got %d", count)
	}
}

func TestStore_GetRecentReadings_OldestFirst(t *testing.T) {
	store := NewStore(100)
	base := time.Now()

	for i := 0; i < 5; i++ {
		store.AddReading(sampleReading("PUMP-001", models.SensorVibration, float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	readings := store.GetRecentReadings("PUMP-001", models.SensorVibration, 3)
	if len(readings) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(readings))
	}
	for i, r := range readings {
		if r.Value != float64(i+2) {
			t.Errorf("Expected oldest-first ordering, got value %v at index %d", r.Value, i)
		}
	}
}

func TestStore_StreamEviction(t *testing.T) {
	store := NewStore(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		store.AddReading(sampleReading("PUMP-001", models.SensorPressure, float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	readings := store.GetRecentReadings("PUMP-001", models.SensorPressure, 0)
	if len(readings) != 3 {
		t.Fatalf("Expected stream capped at 3 readings, got %d", len(readings))
	}
	if readings[0].Value != 2 {
		t.Errorf("Expected oldest readings evicted, first value is %v", readings[0].Value)
	}

	// Eviction only affects the window, not the lifetime count
	if count := store.GetReadingCount(); count != 5 {
		t.Errorf("Expected lifetime count 5, got %d", count)
	}
}

func TestStore_GetReadingsSince(t *testing.T) {
	store := NewStore(100)
	base := time.Now()

	for i := 0; i < 10; i++ {
		store.AddReading(sampleReading("PUMP-001", models.SensorCurrent, float64(i), base.Add(time.Duration(i)*time.Minute)))
	}

	since := base.Add(6 * time.Minute)
	readings := store.GetReadingsSince("PUMP-001", models.SensorCurrent, since)
	if len(readings) != 3 {
		t.Fatalf("Expected 3 readings after the cutoff, got %d", len(readings))
	}
	if readings[0].Value != 7 {
		t.Errorf("Expected first reading after cutoff to be 7, got %v", readings[0].Value)
	}
}

func TestStore_AssetAndSensorDiscovery(t *testing.T) {
	store := NewStore(100)
	now := time.Now()

	store.AddReading(sampleReading("PUMP-002", models.SensorTemperature, 60, now))
	store.AddReading(sampleReading("PUMP-002", models.SensorVibration, 2.1, now))
	store.AddReading(sampleReading("MOTOR-001", models.SensorCurrent, 11.8, now))

	assets := store.GetActiveAssets()
	if len(assets) != 2 || assets[0] != "MOTOR-001" || assets[1] != "PUMP-002" {
		t.Errorf("Expected sorted assets [MOTOR-001 PUMP-002], got %v", assets)
	}

	sensors := store.GetSensorTypes("PUMP-002")
	if len(sensors) != 2 {
		t.Fatalf("Expected 2 sensor types, got %d", len(sensors))
	}
	if sensors[0] != models.SensorTemperature || sensors[1] != models.SensorVibration {
		t.Errorf("Expected sorted sensor types, got %v", sensors)
	}
}

func TestStore_Anomalies_NewestFirst(t *testing.T) {
	store := NewStore(100)
	base := time.Now()

	for i := 0; i < 4; i++ {
		err := store.SaveAnomaly(&models.Anomaly{
			TenantID:   "default",
			AssetID:    "PUMP-001",
			SensorType: models.SensorVibration,
			Value:      float64(i),
			Severity:   models.RiskMedium,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveAnomaly failed: %v", err)
		}
	}

	anomalies, err := store.GetAnomalies("default", 2)
	if err != nil {
		t.Fatalf("GetAnomalies failed: %v", err)
	}
	if len(anomalies) != 2 {
		t.Fatalf("Expected 2 anomalies, got %d", len(anomalies))
	}
	if anomalies[0].Value != 3 || anomalies[1].Value != 2 {
		t.Errorf("Expected newest-first ordering, got values %v, %v", anomalies[0].Value, anomalies[1].Value)
	}
	if anomalies[0].ID == 0 {
		t.Error("Expected an assigned anomaly id")
	}
}

func TestStore_CountAnomaliesSince(t *testing.T) {
	store := NewStore(100)
	base := time.Now()

	for i := 0; i < 6; i++ {
		store.SaveAnomaly(&models.Anomaly{
			TenantID:  "default",
			AssetID:   "PUMP-001",
			Severity:  models.RiskHigh,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}

	count, err := store.CountAnomaliesSince("default", base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("CountAnomaliesSince failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 anomalies after the cutoff, got %d", count)
	}
}

func TestStore_GetAnomaliesByAsset(t *testing.T) {
	store := NewStore(100)
	now := time.Now()

	store.SaveAnomaly(&models.Anomaly{TenantID: "default", AssetID: "PUMP-001", Severity: models.RiskHigh, Timestamp: now})
	store.SaveAnomaly(&models.Anomaly{TenantID: "default", AssetID: "MOTOR-001", Severity: models.RiskLow, Timestamp: now})
	store.SaveAnomaly(&models.Anomaly{TenantID: "default", AssetID: "PUMP-001", Severity: models.RiskMedium, Timestamp: now})

	anomalies, err := store.GetAnomaliesByAsset("default", "PUMP-001", 10)
	if err != nil {
		t.Fatalf("GetAnomaliesByAsset failed: %v", err)
	}
	if len(anomalies) != 2 {
		t.Fatalf("Expected 2 anomalies for PUMP-001, got %d", len(anomalies))
	}
	for _, a := range anomalies {
		if a.AssetID != "PUMP-001" {
			t.Errorf("Expected only PUMP-001 anomalies, got %s", a.AssetID)
		}
	}
}

func TestStore_Anomalies_TenantScoped(t *testing.T) {
	store := NewStore(100)
	base := time.Now()

	// One acme record buried under a burst of globex records. The limit
	// applies after tenant scoping, so acme still sees its own anomaly.
	store.SaveAnomaly(&models.Anomaly{
		TenantID:  "acme",
		AssetID:   "PUMP-001",
		Severity:  models.RiskHigh,
		Timestamp: base,
	})
	for i := 0; i < 5; i++ {
		store.SaveAnomaly(&models.Anomaly{
			TenantID:  "globex",
			AssetID:   "PUMP-009",
			Severity:  models.RiskLow,
			Timestamp: base.Add(time.Duration(i+1) * time.Minute),
		})
	}

	acme, err := store.GetAnomalies("acme", 2)
	if err != nil {
		t.Fatalf("GetAnomalies failed: %v", err)
	}
	if len(acme) != 1 || acme[0].TenantID != "acme" {
		t.Fatalf("Expected acme's own anomaly despite the globex burst, got %v", acme)
	}

	globex, _ := store.GetAnomalies("globex", 2)
	if len(globex) != 2 {
		t.Errorf("Expected limit applied within the tenant, got %d", len(globex))
	}

	count, err := store.CountAnomaliesSince("acme", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountAnomaliesSince failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected per-tenant count 1, got %d", count)
	}

	byAsset, _ := store.GetAnomaliesByAsset("acme", "PUMP-009", 10)
	if len(byAsset) != 0 {
		t.Errorf("Expected no cross-tenant asset reads, got %d", len(byAsset))
	}
}

func testPrediction(id, tenantID, assetID string, ptype models.PredictionType, status models.PredictionStatus) *models.Prediction {
	now := time.Now()
	return &models.Prediction{
		ID:             id,
		TenantID:       tenantID,
		AssetID:        assetID,
		PredictionType: ptype,
		Probability:    60,
		Confidence:     70,
		RiskLevel:      models.RiskHigh,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestStore_OpenPredictionIndex(t *testing.T) {
	store := NewStore(100)

	p := testPrediction("p1", "acme", "PUMP-001", models.PredictionFailure, models.StatusNew)
	if err := store.SavePrediction(p); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}

	open, found, err := store.GetOpenPrediction("acme", "PUMP-001", models.PredictionFailure)
	if err != nil || !found {
		t.Fatalf("Expected open prediction, found=%v err=%v", found, err)
	}
	if open.ID != "p1" {
		t.Errorf("Expected p1, got %s", open.ID)
	}

	// Closing the prediction frees the slot
	p.Status = models.StatusResolved
	if err := store.UpdatePrediction(p); err != nil {
		t.Fatalf("UpdatePrediction failed: %v", err)
	}
	_, found, err = store.GetOpenPrediction("acme", "PUMP-001", models.PredictionFailure)
	if err != nil {
		t.Fatalf("GetOpenPrediction failed: %v", err)
	}
	if found {
		t.Error("Expected no open prediction after resolution")
	}
}

func TestStore_GetOpenPrediction_ScopedByTenantAndType(t *testing.T) {
	store := NewStore(100)

	store.SavePrediction(testPrediction("p1", "acme", "PUMP-001", models.PredictionFailure, models.StatusNew))

	if _, found, _ := store.GetOpenPrediction("globex", "PUMP-001", models.PredictionFailure); found {
		t.Error("Expected no match for a different tenant")
	}
	if _, found, _ := store.GetOpenPrediction("acme", "PUMP-001", models.PredictionAnomaly); found {
		t.Error("Expected no match for a different prediction type")
	}
}

func TestStore_UpdatePrediction_Unknown(t *testing.T) {
	store := NewStore(100)

	p := testPrediction("missing", "acme", "PUMP-001", models.PredictionFailure, models.StatusNew)
	if err := store.UpdatePrediction(p); !errors.Is(err, ErrPredictionNotFound) {
		t.Errorf("Expected ErrPredictionNotFound, got %v", err)
	}

	if _, err := store.GetPrediction("missing"); !errors.Is(err, ErrPredictionNotFound) {
		t.Errorf("Expected ErrPredictionNotFound, got %v", err)
	}
}

func TestStore_GetPredictions_Filters(t *testing.T) {
	store := NewStore(100)

	store.SavePrediction(testPrediction("p1", "acme", "PUMP-001", models.PredictionFailure, models.StatusNew))

	ack := testPrediction("p2", "acme", "MOTOR-001", models.PredictionAnomaly, models.StatusAcknowledged)
	ack.RiskLevel = models.RiskCritical
	store.SavePrediction(ack)

	store.SavePrediction(testPrediction("p3", "globex", "PUMP-001", models.PredictionFailure, models.StatusNew))

	all, err := store.GetPredictions("acme", "", "", 0)
	if err != nil {
		t.Fatalf("GetPredictions failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 predictions for acme, got %d", len(all))
	}

	byStatus, _ := store.GetPredictions("acme", models.StatusAcknowledged, "", 0)
	if len(byStatus) != 1 || byStatus[0].ID != "p2" {
		t.Errorf("Expected only p2 for status filter, got %v", byStatus)
	}

	byRisk, _ := store.GetPredictions("acme", "", models.RiskCritical, 0)
	if len(byRisk) != 1 || byRisk[0].ID != "p2" {
		t.Errorf("Expected only p2 for risk filter, got %v", byRisk)
	}

	limited, _ := store.GetPredictions("acme", "", "", 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to cap results, got %d", len(limited))
	}
}

func TestStore_CountOpenPredictionsByRisk(t *testing.T) {
	store := NewStore(100)

	for i, risk := range []models.RiskLevel{models.RiskHigh, models.RiskHigh, models.RiskCritical} {
		p := testPrediction(fmt.Sprintf("p%d", i), "acme", fmt.Sprintf("A-%d", i), models.PredictionFailure, models.StatusNew)
		p.RiskLevel = risk
		store.SavePrediction(p)
	}

	closed := testPrediction("p9", "acme", "A-9", models.PredictionFailure, models.StatusResolved)
	store.SavePrediction(closed)

	counts, err := store.CountOpenPredictionsByRisk("acme")
	if err != nil {
		t.Fatalf("CountOpenPredictionsByRisk failed: %v", err)
	}
	if counts[models.RiskHigh] != 2 || counts[models.RiskCritical] != 1 {
		t.Errorf("Expected high=2 critical=1, got %v", counts)
	}
	if counts[models.RiskLow] != 0 || counts[models.RiskMedium] != 0 {
		t.Errorf("Expected zeroed buckets present, got %v", counts)
	}
}

func TestStore_GetPrediction_ReturnsCopy(t *testing.T) {
	store := NewStore(100)
	store.SavePrediction(testPrediction("p1", "acme", "PUMP-001", models.PredictionFailure, models.StatusNew))

	first, _ := store.GetPrediction("p1")
	first.Probability = 999

	second, _ := store.GetPrediction("p1")
	if second.Probability == 999 {
		t.Error("Expected GetPrediction to return a copy, not a reference")
	}
}

func TestStore_ModelRegistry(t *testing.T) {
	store := NewStore(100)

	m := &models.Model{
		Name:       "Pump failure model",
		AssetType:  "pump",
		ModelType:  models.PredictionFailure,
		Status:     models.ModelActive,
		Accuracy:   70,
		Parameters: models.DefaultParameters(),
	}
	if err := store.SaveModel(m); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}
	if m.ID == 0 {
		t.Error("Expected an assigned model id")
	}

	active, err := store.GetActiveModel("pump", models.PredictionFailure)
	if err != nil {
		t.Fatalf("GetActiveModel failed: %v", err)
	}
	if active.ID != m.ID {
		t.Errorf("Expected model %d, got %d", m.ID, active.ID)
	}

	if _, err := store.GetActiveModel("pump", models.PredictionAnomaly); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound for a missing model type, got %v", err)
	}

	trainedAt := time.Now()
	if err := store.UpdateModelTraining(m.ID, 84.5, 1200, trainedAt); err != nil {
		t.Fatalf("UpdateModelTraining failed: %v", err)
	}

	list, err := store.GetModels()
	if err != nil {
		t.Fatalf("GetModels failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(list))
	}
	if list[0].Accuracy != 84.5 || list[0].TrainingDataPoints != 1200 {
		t.Errorf("Expected training run recorded, got accuracy=%v points=%d", list[0].Accuracy, list[0].TrainingDataPoints)
	}
	if list[0].LastTrainedAt == nil || !list[0].LastTrainedAt.Equal(trainedAt) {
		t.Errorf("Expected trained-at timestamp recorded, got %v", list[0].LastTrainedAt)
	}

	if err := store.UpdateModelTraining(9999, 50, 10, trainedAt); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound for an unknown model, got %v", err)
	}
}

func TestStore_InactiveModelNotReturned(t *testing.T) {
	store := NewStore(100)

	store.SaveModel(&models.Model{
		Name:       "Retired pump model",
		AssetType:  "pump",
		ModelType:  models.PredictionFailure,
		Status:     models.ModelInactive,
		Parameters: models.DefaultParameters(),
	})

	if _, err := store.GetActiveModel("pump", models.PredictionFailure); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound for an inactive model, got %v", err)
	}
}

func TestStore_ConcurrentIngestion(t *testing.T) {
	store := NewStore(1000)
	done := make(chan bool, 2)

	go func() {
		for i := 0; i < 100; i++ {
			store.AddReading(sampleReading("PUMP-001", models.SensorTemperature, float64(i), time.Now()))
		}
		done <- true
	}()
	go func() {
		for i := 0; i < 100; i++ {
			store.GetRecentReadings("PUMP-001", models.SensorTemperature, 10)
			store.GetLatestReading("PUMP-001", models.SensorTemperature)
		}
		done <- true
	}()

	<-done
	<-done

	if count := store.GetReadingCount(); count != 100 {
		t.Errorf("Expected 100 readings after concurrent access, got %d", count)
	}
}
