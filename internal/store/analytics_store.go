package store

import (
	"sort"
	"sync"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// analyticsStore holds anomaly, prediction and model records with its own
// lock so analytics writes never contend with telemetry ingestion
type analyticsStore struct {
	mu            sync.RWMutex
	anomalies     []models.Anomaly
	predictions   map[string]*models.Prediction
	openIndex     map[string]string // open key -> prediction id
	modelList     []models.Model
	nextAnomalyID int
	nextModelID   int
}

func newAnalyticsStore() *analyticsStore {
	return &analyticsStore{
		predictions:   make(map[string]*models.Prediction),
		openIndex:     make(map[string]string),
		nextAnomalyID: 1,
		nextModelID:   1,
	}
}

// Anomaly records

func (s *Store) SaveAnomaly(anomaly *models.Anomaly) error {
	a := s.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	anomaly.ID = a.nextAnomalyID
	a.nextAnomalyID++
	if anomaly.CreatedAt.IsZero() {
		anomaly.CreatedAt = time.Now()
	}

	a.anomalies = append(a.anomalies, *anomaly)
	return nil
}

// GetAnomalies returns the tenant's most recent anomalies, newest first.
// The limit applies after tenant scoping so a busy neighbor cannot crowd a
// tenant out of its own result window.
func (s *Store) GetAnomalies(tenantID string, limit int) ([]models.Anomaly, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []models.Anomaly
	for i := len(a.anomalies) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if a.anomalies[i].TenantID == tenantID {
			result = append(result, a.anomalies[i])
		}
	}
	return result, nil
}

func (s *Store) GetAnomaliesByAsset(tenantID, assetID string, limit int) ([]models.Anomaly, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []models.Anomaly
	for i := len(a.anomalies) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if a.anomalies[i].TenantID == tenantID && a.anomalies[i].AssetID == assetID {
			result = append(result, a.anomalies[i])
		}
	}
	return result, nil
}

func (s *Store) CountAnomaliesSince(tenantID string, since time.Time) (int, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	count := 0
	for _, anomaly := range a.anomalies {
		if anomaly.TenantID == tenantID && anomaly.Timestamp.After(since) {
			count++
		}
	}
	return count, nil
}

// Prediction records

func (s *Store) SavePrediction(p *models.Prediction) error {
	a := s.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	stored := *p
	a.predictions[p.ID] = &stored
	if p.Status.IsOpen() {
		a.openIndex[p.OpenKey()] = p.ID
	}
	return nil
}

func (s *Store) UpdatePrediction(p *models.Prediction) error {
	a := s.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.predictions[p.ID]; !ok {
		return ErrPredictionNotFound
	}

	stored := *p
	a.predictions[p.ID] = &stored

	// A prediction leaving the open states frees its (asset, type) slot
	if p.Status.IsOpen() {
		a.openIndex[p.OpenKey()] = p.ID
	} else if a.openIndex[p.OpenKey()] == p.ID {
		delete(a.openIndex, p.OpenKey())
	}
	return nil
}

func (s *Store) GetPrediction(id string) (*models.Prediction, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.predictions[id]
	if !ok {
		return nil, ErrPredictionNotFound
	}
	result := *p
	return &result, nil
}

func (s *Store) GetOpenPrediction(tenantID, assetID string, ptype models.PredictionType) (*models.Prediction, bool, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.openIndex[tenantID+"|"+assetID+"|"+string(ptype)]
	if !ok {
		return nil, false, nil
	}
	p := *a.predictions[id]
	return &p, true, nil
}

// GetPredictions returns predictions for a tenant, newest first, optionally
// filtered by status and risk level
func (s *Store) GetPredictions(tenantID string, status models.PredictionStatus, risk models.RiskLevel, limit int) ([]models.Prediction, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []models.Prediction
	for _, p := range a.predictions {
		if p.TenantID != tenantID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if risk != "" && p.RiskLevel != risk {
			continue
		}
		result = append(result, *p)
	}

	sortPredictionsByUpdated(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetOpenPredictionsByAsset(tenantID, assetID string) ([]models.Prediction, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []models.Prediction
	for _, p := range a.predictions {
		if p.TenantID == tenantID && p.AssetID == assetID && p.Status.IsOpen() {
			result = append(result, *p)
		}
	}
	sortPredictionsByUpdated(result)
	return result, nil
}

func (s *Store) CountOpenPredictionsByRisk(tenantID string) (map[models.RiskLevel]int, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := map[models.RiskLevel]int{
		models.RiskLow:      0,
		models.RiskMedium:   0,
		models.RiskHigh:     0,
		models.RiskCritical: 0,
	}
	for _, p := range a.predictions {
		if p.TenantID == tenantID && p.Status.IsOpen() {
			counts[p.RiskLevel]++
		}
	}
	return counts, nil
}

func sortPredictionsByUpdated(predictions []models.Prediction) {
	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].UpdatedAt.After(predictions[j].UpdatedAt)
	})
}

// Model registry records

func (s *Store) SaveModel(m *models.Model) error {
	a := s.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	if m.ID == 0 {
		m.ID = a.nextModelID
		a.nextModelID++
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	for i := range a.modelList {
		if a.modelList[i].ID == m.ID {
			a.modelList[i] = *m
			return nil
		}
	}
	a.modelList = append(a.modelList, *m)
	return nil
}

func (s *Store) GetModels() ([]models.Model, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]models.Model, len(a.modelList))
	copy(result, a.modelList)
	return result, nil
}

func (s *Store) GetActiveModel(assetType string, modelType models.PredictionType) (*models.Model, error) {
	a := s.analytics
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i := range a.modelList {
		m := a.modelList[i]
		if m.AssetType == assetType && m.ModelType == modelType && m.Status == models.ModelActive {
			return &m, nil
		}
	}
	return nil, ErrModelNotFound
}

func (s *Store) UpdateModelTraining(modelID int, accuracy float64, dataPoints int, trainedAt time.Time) error {
	a := s.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.modelList {
		if a.modelList[i].ID == modelID {
			a.modelList[i].Accuracy = accuracy
			a.modelList[i].TrainingDataPoints = dataPoints
			a.modelList[i].LastTrainedAt = &trainedAt
			a.modelList[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrModelNotFound
}
