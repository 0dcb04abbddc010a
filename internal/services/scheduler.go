package services

import (
	"log"
	"sync"
	"time"

	"github.com/assetiq/maintenance_backend/internal/engine"
	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/registry"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// Scheduler drives the periodic background work: scoring runs over every
// active asset and model-training bookkeeping
type Scheduler struct {
	store    store.DataStore
	engine   *engine.Service
	registry *registry.Registry

	scoringInterval time.Duration
	retrainInterval time.Duration

	scoringTicker *time.Ticker
	retrainTicker *time.Ticker
	stopChan      chan bool
	mu            sync.RWMutex
	isRunning     bool
	lastScoringAt time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(dataStore store.DataStore, eng *engine.Service, reg *registry.Registry, scoringInterval, retrainInterval time.Duration) *Scheduler {
	if scoringInterval <= 0 {
		scoringInterval = 5 * time.Minute
	}
	if retrainInterval <= 0 {
		retrainInterval = 6 * time.Hour
	}
	return &Scheduler{
		store:           dataStore,
		engine:          eng,
		registry:        reg,
		scoringInterval: scoringInterval,
		retrainInterval: retrainInterval,
		stopChan:        make(chan bool),
	}
}

// Start begins the scheduler background process
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		log.Println("⚠️  Scheduler: Already running")
		return
	}

	s.scoringTicker = time.NewTicker(s.scoringInterval)
	s.retrainTicker = time.NewTicker(s.retrainInterval)
	s.isRunning = true

	log.Printf("🕐 Scheduler: Started - scoring every %s, retraining every %s", s.scoringInterval, s.retrainInterval)

	go s.run()
}

// Stop halts the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.scoringTicker.Stop()
	s.retrainTicker.Stop()
	s.stopChan <- true
	s.isRunning = false

	log.Println("🛑 Scheduler: Stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	// Score immediately on start so restarts recover promptly
	s.runScoringPass()

	for {
		select {
		case <-s.scoringTicker.C:
			s.runScoringPass()
		case <-s.retrainTicker.C:
			s.runRetrainingPass()
		case <-s.stopChan:
			return
		}
	}
}

// runScoringPass scores every asset with telemetry on behalf of the system
// actor
func (s *Scheduler) runScoringPass() {
	started := time.Now()
	actor := models.SystemActor(models.DefaultTenant)

	scored := s.engine.ScoreAllAssets(actor)

	s.mu.Lock()
	s.lastScoringAt = started
	s.mu.Unlock()

	if scored > 0 {
		log.Printf("✅ Scheduler: Scored %d asset(s) in %s", scored, time.Since(started).Round(time.Millisecond))
	}
}

// runRetrainingPass refreshes each model's data-point bookkeeping from the
// accumulated telemetry volume. Accuracy only changes through an explicitly
// reported training run.
func (s *Scheduler) runRetrainingPass() {
	modelList, err := s.registry.ListModels()
	if err != nil {
		log.Printf("❌ Scheduler: Failed to list models for retraining: %v", err)
		return
	}

	now := time.Now()
	retrained := 0

	for _, model := range modelList {
		if model.Status != models.ModelActive {
			continue
		}

		points := s.store.GetReadingCount()
		if points <= model.TrainingDataPoints {
			// No new data since the last pass
			continue
		}

		if err := s.registry.RecordTrainingRun(model.ID, model.Accuracy, points, now); err != nil {
			log.Printf("❌ Scheduler: Failed to record training run for model %d: %v", model.ID, err)
			continue
		}
		retrained++
	}

	if retrained > 0 {
		log.Printf("🧠 Scheduler: Recorded training runs for %d model(s)", retrained)
	}
}

// LastScoringAt reports when the last full scoring pass started
func (s *Scheduler) LastScoringAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScoringAt
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
