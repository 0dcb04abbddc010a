package registry

import (
	"fmt"
	"log"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// ErrModelNotFound is returned when no active model exists for the requested
// (asset type, model type) pair. Callers must abstain from scoring rather
// than guess defaults.
var ErrModelNotFound = store.ErrModelNotFound

// Registry tracks named models per asset type and supplies their parameters
// to the estimators. Models are trained offline; the registry only records
// training-run bookkeeping.
type Registry struct {
	store store.DataStore
}

// NewRegistry creates a registry over the given store
func NewRegistry(dataStore store.DataStore) *Registry {
	return &Registry{store: dataStore}
}

// GetParameters returns the active model and its parameters for an asset
// type and model type. Returns ErrModelNotFound when no active model exists.
func (r *Registry) GetParameters(assetType string, modelType models.PredictionType) (*models.Model, error) {
	model, err := r.store.GetActiveModel(assetType, modelType)
	if err != nil {
		return nil, fmt.Errorf("no active %s model for asset type %q: %w", modelType, assetType, err)
	}
	return model, nil
}

// RecordTrainingRun updates a model's accuracy and training bookkeeping after
// an offline training run
func (r *Registry) RecordTrainingRun(modelID int, accuracy float64, dataPointCount int, trainedAt time.Time) error {
	if accuracy < 0 || accuracy > 100 {
		return fmt.Errorf("accuracy %.2f is outside 0-100", accuracy)
	}
	if dataPointCount < 0 {
		return fmt.Errorf("training data point count cannot be negative")
	}

	if err := r.store.UpdateModelTraining(modelID, accuracy, dataPointCount, trainedAt); err != nil {
		return err
	}

	log.Printf("📚 Model %d training run recorded: accuracy %.1f%% on %d points", modelID, accuracy, dataPointCount)
	return nil
}

// ListModels returns all registered models
func (r *Registry) ListModels() ([]models.Model, error) {
	return r.store.GetModels()
}

// AverageAccuracy returns the mean accuracy across active models, or 0 when
// none are registered
func (r *Registry) AverageAccuracy() (float64, error) {
	modelList, err := r.store.GetModels()
	if err != nil {
		return 0, err
	}

	total, n := 0.0, 0
	for _, m := range modelList {
		if m.Status == models.ModelActive {
			total += m.Accuracy
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}
