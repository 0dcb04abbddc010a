package lifecycle

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assetiq/maintenance_backend/internal/metrics"
	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// WorkOrderCreator is the external work-order collaborator contract. It is
// called while converting a prediction and later calls Resolve back when the
// work order closes.
type WorkOrderCreator interface {
	CreateFromPrediction(actor models.Actor, p *models.Prediction) (string, error)
}

// Manager owns the prediction state machine. All mutation for a given
// (tenant, asset, prediction type) is serialized through a keyed lock, which
// upholds the at-most-one-open-prediction invariant under concurrent scoring
// runs and keeps human-driven transitions from racing ingest updates.
type Manager struct {
	store   store.DataStore
	creator WorkOrderCreator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a lifecycle manager over the given store
func NewManager(dataStore store.DataStore, creator WorkOrderCreator) *Manager {
	return &Manager{
		store:   dataStore,
		creator: creator,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the single-writer lock for an open-prediction key
func (m *Manager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// ScoreInput carries the output of one scoring run into the lifecycle
type ScoreInput struct {
	PredictionText    string
	Probability       float64 // 0-100
	Confidence        float64 // 0-100
	PredictedDate     *time.Time
	RemainingLifeDays *int
	RiskLevel         models.RiskLevel
	Factors           []models.Factor
	RecommendedAction string
	EstimatedCost     *float64
	PotentialSavings  *float64
}

func (in *ScoreInput) validate() error {
	if in.Probability < 0 || in.Probability > 100 {
		return fmt.Errorf("probability %.2f is outside 0-100", in.Probability)
	}
	if in.Confidence < 0 || in.Confidence > 100 {
		return fmt.Errorf("confidence %.2f is outside 0-100", in.Confidence)
	}
	if !in.RiskLevel.IsValid() {
		return fmt.Errorf("unknown risk level %q", in.RiskLevel)
	}
	return models.ValidateFactors(in.Factors)
}

// IngestScore records the result of a scoring run. If an open (new or
// acknowledged) prediction already exists for (tenant, asset, type), its
// scoring fields are updated in place without touching its status and no
// second record is created; the returned bool is true in that suppressed
// duplicate case.
func (m *Manager) IngestScore(actor models.Actor, assetID string, ptype models.PredictionType, in ScoreInput) (*models.Prediction, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	key := actor.TenantID + "|" + assetID + "|" + string(ptype)
	lock := m.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()

	existing, found, err := m.store.GetOpenPrediction(actor.TenantID, assetID, ptype)
	if err != nil {
		return nil, false, err
	}

	if found {
		previousRisk := existing.RiskLevel
		existing.PredictionText = in.PredictionText
		existing.Probability = in.Probability
		existing.Confidence = in.Confidence
		existing.PredictedDate = in.PredictedDate
		existing.RemainingLifeDays = in.RemainingLifeDays
		existing.RiskLevel = in.RiskLevel
		existing.Factors = in.Factors
		existing.RecommendedAction = in.RecommendedAction
		existing.EstimatedCost = in.EstimatedCost
		existing.PotentialSavings = in.PotentialSavings
		existing.UpdatedAt = now

		if err := m.store.UpdatePrediction(existing); err != nil {
			return nil, false, err
		}
		if previousRisk != existing.RiskLevel {
			metrics.OpenPredictions.WithLabelValues(string(previousRisk)).Dec()
			metrics.OpenPredictions.WithLabelValues(string(existing.RiskLevel)).Inc()
		}
		return existing, true, nil
	}

	prediction := &models.Prediction{
		ID:                uuid.NewString(),
		TenantID:          actor.TenantID,
		AssetID:           assetID,
		PredictionType:    ptype,
		PredictionText:    in.PredictionText,
		Probability:       in.Probability,
		Confidence:        in.Confidence,
		PredictedDate:     in.PredictedDate,
		RemainingLifeDays: in.RemainingLifeDays,
		RiskLevel:         in.RiskLevel,
		Status:            models.StatusNew,
		Factors:           in.Factors,
		RecommendedAction: in.RecommendedAction,
		EstimatedCost:     in.EstimatedCost,
		PotentialSavings:  in.PotentialSavings,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := m.store.SavePrediction(prediction); err != nil {
		return nil, false, err
	}

	metrics.PredictionsCreated.WithLabelValues(string(ptype), string(in.RiskLevel)).Inc()
	metrics.OpenPredictions.WithLabelValues(string(in.RiskLevel)).Inc()
	return prediction, false, nil
}

// Acknowledge marks a new prediction as reviewed. Legal only from new;
// acknowledging an already-acknowledged prediction is an idempotent success.
func (m *Manager) Acknowledge(actor models.Actor, predictionID string) (*models.Prediction, error) {
	return m.transition(actor, predictionID, models.StatusAcknowledged, nil)
}

// Dismiss closes an open prediction as either operator-dismissed or a false
// positive. Terminal and irreversible.
func (m *Manager) Dismiss(actor models.Actor, predictionID string, reason models.PredictionStatus) (*models.Prediction, error) {
	if reason != models.StatusDismissed && reason != models.StatusFalsePositive {
		return nil, fmt.Errorf("dismiss reason must be %q or %q, got %q",
			models.StatusDismissed, models.StatusFalsePositive, reason)
	}
	return m.transition(actor, predictionID, reason, nil)
}

// GenerateWorkOrder converts an open prediction into a work order through the
// external collaborator and records the returned reference. Irreversible;
// retrying after success is an idempotent no-op.
func (m *Manager) GenerateWorkOrder(actor models.Actor, predictionID string) (*models.Prediction, error) {
	return m.transition(actor, predictionID, models.StatusWorkOrderCreated, func(p *models.Prediction) error {
		ref, err := m.creator.CreateFromPrediction(actor, p)
		if err != nil {
			return fmt.Errorf("work order creation failed: %w", err)
		}
		p.WorkOrderRef = ref
		return nil
	})
}

// Resolve is called by the work-order collaborator when the linked work order
// closes. Legal only from work_order_created.
func (m *Manager) Resolve(actor models.Actor, predictionID string) (*models.Prediction, error) {
	return m.transition(actor, predictionID, models.StatusResolved, nil)
}

// transition applies a status change under the prediction's single-writer
// lock. Re-requesting the current state is a no-op success, which protects
// against at-least-once delivery from upstream schedulers.
func (m *Manager) transition(actor models.Actor, predictionID string, target models.PredictionStatus, apply func(*models.Prediction) error) (*models.Prediction, error) {
	// Fetch once outside the lock just to learn the key the record locks under
	peek, err := m.store.GetPrediction(predictionID)
	if err != nil {
		return nil, err
	}

	lock := m.lockFor(peek.OpenKey())
	lock.Lock()
	defer lock.Unlock()

	p, err := m.store.GetPrediction(predictionID)
	if err != nil {
		return nil, err
	}
	if p.TenantID != actor.TenantID {
		return nil, store.ErrPredictionNotFound
	}

	if p.Status == target {
		return p, nil
	}
	if !p.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{PredictionID: predictionID, From: p.Status, To: target}
	}

	if apply != nil {
		if err := apply(p); err != nil {
			return nil, err
		}
	}

	from := p.Status
	p.Status = target
	p.UpdatedAt = time.Now()

	if err := m.store.UpdatePrediction(p); err != nil {
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(from), string(target)).Inc()
	if from.IsOpen() && !target.IsOpen() {
		metrics.OpenPredictions.WithLabelValues(string(p.RiskLevel)).Dec()
	}
	log.Printf("🔁 Prediction %s: %s → %s (actor %s)", predictionID, from, target, actor.ActorID)
	return p, nil
}
