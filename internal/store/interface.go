package store

import (
	"errors"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// ErrPredictionNotFound is returned when a prediction id does not exist for
// the caller's tenant
var ErrPredictionNotFound = errors.New("prediction not found")

// ErrModelNotFound is returned when no active model exists for an
// (asset type, model type) pair
var ErrModelNotFound = errors.New("model not found")

// DataStore defines the interface for telemetry and analytics storage
type DataStore interface {
	// Health check
	Ping() error

	// Telemetry readings
	AddReading(models.Reading)
	GetLatestReading(assetID string, sensor models.SensorType) (*models.Reading, bool)
	GetRecentReadings(assetID string, sensor models.SensorType, limit int) []models.Reading
	GetReadingsSince(assetID string, sensor models.SensorType, since time.Time) []models.Reading
	GetReadingCount() int
	GetActiveAssets() []string
	GetSensorTypes(assetID string) []models.SensorType

	// Anomaly records. Reads are scoped to one tenant.
	SaveAnomaly(*models.Anomaly) error
	GetAnomalies(tenantID string, limit int) ([]models.Anomaly, error)
	GetAnomaliesByAsset(tenantID, assetID string, limit int) ([]models.Anomaly, error)
	CountAnomaliesSince(tenantID string, since time.Time) (int, error)

	// Prediction records
	SavePrediction(*models.Prediction) error
	UpdatePrediction(*models.Prediction) error
	GetPrediction(id string) (*models.Prediction, error)
	GetOpenPrediction(tenantID, assetID string, ptype models.PredictionType) (*models.Prediction, bool, error)
	GetPredictions(tenantID string, status models.PredictionStatus, risk models.RiskLevel, limit int) ([]models.Prediction, error)
	GetOpenPredictionsByAsset(tenantID, assetID string) ([]models.Prediction, error)
	CountOpenPredictionsByRisk(tenantID string) (map[models.RiskLevel]int, error)

	// Model registry records
	SaveModel(*models.Model) error
	GetModels() ([]models.Model, error)
	GetActiveModel(assetType string, modelType models.PredictionType) (*models.Model, error)
	UpdateModelTraining(modelID int, accuracy float64, dataPoints int, trainedAt time.Time) error
}
