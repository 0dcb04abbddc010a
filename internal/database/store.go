package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// DatabaseStore implements store.DataStore backed by PostgreSQL
type DatabaseStore struct {
	db *DB
}

// NewDatabaseStore creates a PostgreSQL-backed data store
func NewDatabaseStore(db *DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Ping checks database connectivity
func (s *DatabaseStore) Ping() error {
	return s.db.Ping()
}

// Telemetry readings

func (s *DatabaseStore) AddReading(reading models.Reading) {
	query := `
		INSERT INTO readings (asset_id, sensor_type, value, unit, timestamp)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.Exec(query,
		reading.AssetID, string(reading.SensorType), reading.Value, reading.Unit, reading.Timestamp); err != nil {
		log.Printf("❌ Database: Failed to insert reading for %s/%s: %v",
			reading.AssetID, reading.SensorType, err)
	}
}

func (s *DatabaseStore) GetLatestReading(assetID string, sensor models.SensorType) (*models.Reading, bool) {
	query := `
		SELECT asset_id, sensor_type, value, unit, timestamp
		FROM readings
		WHERE asset_id = $1 AND sensor_type = $2
		ORDER BY timestamp DESC
		LIMIT 1`

	var reading models.Reading
	var sensorType string
	err := s.db.QueryRow(query, assetID, string(sensor)).Scan(
		&reading.AssetID, &sensorType, &reading.Value, &reading.Unit, &reading.Timestamp)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ Database: Failed to query latest reading: %v", err)
		}
		return nil, false
	}
	reading.SensorType = models.SensorType(sensorType)
	return &reading, true
}

func (s *DatabaseStore) GetRecentReadings(assetID string, sensor models.SensorType, limit int) []models.Reading {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT asset_id, sensor_type, value, unit, timestamp
		FROM readings
		WHERE asset_id = $1 AND sensor_type = $2
		ORDER BY timestamp DESC
		LIMIT $3`

	rows, err := s.db.Query(query, assetID, string(sensor), limit)
	if err != nil {
		log.Printf("❌ Database: Failed to query recent readings: %v", err)
		return nil
	}
	defer rows.Close()

	readings := scanReadings(rows)

	// Oldest first, matching what the estimators expect
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings
}

func (s *DatabaseStore) GetReadingsSince(assetID string, sensor models.SensorType, since time.Time) []models.Reading {
	query := `
		SELECT asset_id, sensor_type, value, unit, timestamp
		FROM readings
		WHERE asset_id = $1 AND sensor_type = $2 AND timestamp >= $3
		ORDER BY timestamp ASC`

	rows, err := s.db.Query(query, assetID, string(sensor), since)
	if err != nil {
		log.Printf("❌ Database: Failed to query readings since %s: %v", since, err)
		return nil
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) []models.Reading {
	var readings []models.Reading
	for rows.Next() {
		var reading models.Reading
		var sensorType string
		if err := rows.Scan(&reading.AssetID, &sensorType, &reading.Value, &reading.Unit, &reading.Timestamp); err != nil {
			log.Printf("❌ Database: Failed to scan reading row: %v", err)
			continue
		}
		reading.SensorType = models.SensorType(sensorType)
		readings = append(readings, reading)
	}
	return readings
}

func (s *DatabaseStore) GetReadingCount() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&count); err != nil {
		log.Printf("❌ Database: Failed to count readings: %v", err)
		return 0
	}
	return count
}

func (s *DatabaseStore) GetActiveAssets() []string {
	rows, err := s.db.Query("SELECT DISTINCT asset_id FROM readings ORDER BY asset_id")
	if err != nil {
		log.Printf("❌ Database: Failed to query active assets: %v", err)
		return nil
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var assetID string
		if err := rows.Scan(&assetID); err != nil {
			continue
		}
		assets = append(assets, assetID)
	}
	return assets
}

func (s *DatabaseStore) GetSensorTypes(assetID string) []models.SensorType {
	rows, err := s.db.Query(
		"SELECT DISTINCT sensor_type FROM readings WHERE asset_id = $1 ORDER BY sensor_type", assetID)
	if err != nil {
		log.Printf("❌ Database: Failed to query sensor types: %v", err)
		return nil
	}
	defer rows.Close()

	var sensors []models.SensorType
	for rows.Next() {
		var sensor string
		if err := rows.Scan(&sensor); err != nil {
			continue
		}
		sensors = append(sensors, models.SensorType(sensor))
	}
	return sensors
}

// Anomaly records

func (s *DatabaseStore) SaveAnomaly(anomaly *models.Anomaly) error {
	if anomaly.CreatedAt.IsZero() {
		anomaly.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO anomalies (tenant_id, asset_id, sensor_type, value, z_score, severity, timestamp, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := s.db.QueryRow(query,
		anomaly.TenantID, anomaly.AssetID, string(anomaly.SensorType), anomaly.Value,
		anomaly.ZScore, string(anomaly.Severity), anomaly.Timestamp, anomaly.Message, anomaly.CreatedAt,
	).Scan(&anomaly.ID)
	if err != nil {
		return fmt.Errorf("failed to insert anomaly: %w", err)
	}
	return nil
}

func (s *DatabaseStore) GetAnomalies(tenantID string, limit int) ([]models.Anomaly, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, tenant_id, asset_id, sensor_type, value, z_score, severity, timestamp, message, created_at
		FROM anomalies
		WHERE tenant_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := s.db.Query(query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	return scanAnomalies(rows)
}

func (s *DatabaseStore) GetAnomaliesByAsset(tenantID, assetID string, limit int) ([]models.Anomaly, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, tenant_id, asset_id, sensor_type, value, z_score, severity, timestamp, message, created_at
		FROM anomalies
		WHERE tenant_id = $1 AND asset_id = $2
		ORDER BY timestamp DESC
		LIMIT $3`

	rows, err := s.db.Query(query, tenantID, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies for asset %s: %w", assetID, err)
	}
	defer rows.Close()

	return scanAnomalies(rows)
}

func scanAnomalies(rows *sql.Rows) ([]models.Anomaly, error) {
	var anomalies []models.Anomaly
	for rows.Next() {
		var a models.Anomaly
		var sensorType, severity string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.AssetID, &sensorType, &a.Value,
			&a.ZScore, &severity, &a.Timestamp, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly row: %w", err)
		}
		a.SensorType = models.SensorType(sensorType)
		a.Severity = models.RiskLevel(severity)
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

func (s *DatabaseStore) CountAnomaliesSince(tenantID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM anomalies WHERE tenant_id = $1 AND timestamp > $2", tenantID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count anomalies: %w", err)
	}
	return count, nil
}

// Prediction records

const predictionColumns = `id, tenant_id, asset_id, prediction_type, prediction_text, probability,
	confidence, predicted_date, remaining_life_days, risk_level, status, factors,
	recommended_action, estimated_cost, potential_savings, work_order_ref, created_at, updated_at`

func (s *DatabaseStore) SavePrediction(p *models.Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction factors: %w", err)
	}

	query := `
		INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	if _, err := s.db.Exec(query,
		p.ID, p.TenantID, p.AssetID, string(p.PredictionType), p.PredictionText, p.Probability,
		p.Confidence, p.PredictedDate, p.RemainingLifeDays, string(p.RiskLevel), string(p.Status), factors,
		p.RecommendedAction, p.EstimatedCost, p.PotentialSavings, p.WorkOrderRef, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

func (s *DatabaseStore) UpdatePrediction(p *models.Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction factors: %w", err)
	}

	query := `
		UPDATE predictions
		SET prediction_text = $2, probability = $3, confidence = $4, predicted_date = $5,
			remaining_life_days = $6, risk_level = $7, status = $8, factors = $9,
			recommended_action = $10, estimated_cost = $11, potential_savings = $12,
			work_order_ref = $13, updated_at = $14
		WHERE id = $1`

	result, err := s.db.Exec(query,
		p.ID, p.PredictionText, p.Probability, p.Confidence, p.PredictedDate,
		p.RemainingLifeDays, string(p.RiskLevel), string(p.Status), factors,
		p.RecommendedAction, p.EstimatedCost, p.PotentialSavings, p.WorkOrderRef, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update prediction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return store.ErrPredictionNotFound
	}
	return nil
}

func (s *DatabaseStore) GetPrediction(id string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	p, err := scanPrediction(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPredictionNotFound
	}
	return p, err
}

func (s *DatabaseStore) GetOpenPrediction(tenantID, assetID string, ptype models.PredictionType) (*models.Prediction, bool, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE tenant_id = $1 AND asset_id = $2 AND prediction_type = $3
			AND status IN ('new', 'acknowledged')`

	p, err := scanPrediction(s.db.QueryRow(query, tenantID, assetID, string(ptype)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *DatabaseStore) GetPredictions(tenantID string, status models.PredictionStatus, risk models.RiskLevel, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE tenant_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR risk_level = $3)
		ORDER BY updated_at DESC
		LIMIT $4`

	rows, err := s.db.Query(query, tenantID, string(status), string(risk), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *DatabaseStore) GetOpenPredictionsByAsset(tenantID, assetID string) ([]models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE tenant_id = $1 AND asset_id = $2 AND status IN ('new', 'acknowledged')
		ORDER BY updated_at DESC`

	rows, err := s.db.Query(query, tenantID, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *DatabaseStore) CountOpenPredictionsByRisk(tenantID string) (map[models.RiskLevel]int, error) {
	counts := map[models.RiskLevel]int{
		models.RiskLow:      0,
		models.RiskMedium:   0,
		models.RiskHigh:     0,
		models.RiskCritical: 0,
	}

	query := `
		SELECT risk_level, COUNT(*)
		FROM predictions
		WHERE tenant_id = $1 AND status IN ('new', 'acknowledged')
		GROUP BY risk_level`

	rows, err := s.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open predictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan risk count row: %w", err)
		}
		counts[models.RiskLevel(level)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (*models.Prediction, error) {
	var p models.Prediction
	var ptype, risk, status string
	var factors []byte

	err := row.Scan(&p.ID, &p.TenantID, &p.AssetID, &ptype, &p.PredictionText, &p.Probability,
		&p.Confidence, &p.PredictedDate, &p.RemainingLifeDays, &risk, &status, &factors,
		&p.RecommendedAction, &p.EstimatedCost, &p.PotentialSavings, &p.WorkOrderRef,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.PredictionType = models.PredictionType(ptype)
	p.RiskLevel = models.RiskLevel(risk)
	p.Status = models.PredictionStatus(status)
	if err := json.Unmarshal(factors, &p.Factors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction factors: %w", err)
	}
	return &p, nil
}

func scanPredictions(rows *sql.Rows) ([]models.Prediction, error) {
	var predictions []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

// Model registry records

func (s *DatabaseStore) SaveModel(m *models.Model) error {
	parameters, err := json.Marshal(m.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal model parameters: %w", err)
	}

	if m.ID == 0 {
		query := `
			INSERT INTO models (name, asset_type, model_type, status, accuracy, training_data_points, last_trained_at, parameters)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`

		return s.db.QueryRow(query,
			m.Name, m.AssetType, string(m.ModelType), string(m.Status),
			m.Accuracy, m.TrainingDataPoints, m.LastTrainedAt, parameters,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	}

	query := `
		UPDATE models
		SET name = $2, asset_type = $3, model_type = $4, status = $5, accuracy = $6,
			training_data_points = $7, last_trained_at = $8, parameters = $9, updated_at = NOW()
		WHERE id = $1`

	if _, err := s.db.Exec(query,
		m.ID, m.Name, m.AssetType, string(m.ModelType), string(m.Status),
		m.Accuracy, m.TrainingDataPoints, m.LastTrainedAt, parameters); err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}
	return nil
}

const modelColumns = `id, name, asset_type, model_type, status, accuracy,
	training_data_points, last_trained_at, parameters, created_at, updated_at`

func (s *DatabaseStore) GetModels() ([]models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models ORDER BY asset_type, model_type`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var modelList []models.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		modelList = append(modelList, *m)
	}
	return modelList, rows.Err()
}

func (s *DatabaseStore) GetActiveModel(assetType string, modelType models.PredictionType) (*models.Model, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM models
		WHERE asset_type = $1 AND model_type = $2 AND status = 'active'
		LIMIT 1`

	m, err := scanModel(s.db.QueryRow(query, assetType, string(modelType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrModelNotFound
	}
	return m, err
}

func scanModel(row rowScanner) (*models.Model, error) {
	var m models.Model
	var modelType, status string
	var parameters []byte

	err := row.Scan(&m.ID, &m.Name, &m.AssetType, &modelType, &status, &m.Accuracy,
		&m.TrainingDataPoints, &m.LastTrainedAt, &parameters, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.ModelType = models.PredictionType(modelType)
	m.Status = models.ModelStatus(status)
	if err := json.Unmarshal(parameters, &m.Parameters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model parameters: %w", err)
	}
	return &m, nil
}

func (s *DatabaseStore) UpdateModelTraining(modelID int, accuracy float64, dataPoints int, trainedAt time.Time) error {
	query := `
		UPDATE models
		SET accuracy = $2, training_data_points = $3, last_trained_at = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.Exec(query, modelID, accuracy, dataPoints, trainedAt)
	if err != nil {
		return fmt.Errorf("failed to update model training: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return store.ErrModelNotFound
	}
	return nil
}
