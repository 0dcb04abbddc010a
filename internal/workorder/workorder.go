package workorder

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// Record tracks a work order issued for a prediction
type Record struct {
	Ref          string    `json:"ref"`
	PredictionID string    `json:"prediction_id"`
	AssetID      string    `json:"asset_id"`
	Description  string    `json:"description"`
	RequestedBy  string    `json:"requested_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// MemoryService is an in-process work-order collaborator. Production
// deployments swap in a client for the platform's work-order module; the
// lifecycle manager only sees the CreateFromPrediction contract.
type MemoryService struct {
	mu      sync.Mutex
	records map[string]Record
	nextRef int
}

// NewMemoryService creates an empty work-order service
func NewMemoryService() *MemoryService {
	return &MemoryService{
		records: make(map[string]Record),
		nextRef: 1,
	}
}

// CreateFromPrediction opens a work order for a prediction and returns its
// reference
func (s *MemoryService) CreateFromPrediction(actor models.Actor, p *models.Prediction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := fmt.Sprintf("WO-%04d", s.nextRef)
	s.nextRef++

	s.records[ref] = Record{
		Ref:          ref,
		PredictionID: p.ID,
		AssetID:      p.AssetID,
		Description:  p.PredictionText,
		RequestedBy:  actor.ActorID,
		CreatedAt:    time.Now(),
	}

	log.Printf("🛠️  Work order %s created for prediction %s (asset %s)", ref, p.ID, p.AssetID)
	return ref, nil
}

// Get returns a work order by reference
func (s *MemoryService) Get(ref string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[ref]
	if !ok {
		return nil, false
	}
	return &r, true
}
