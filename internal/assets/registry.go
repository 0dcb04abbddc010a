package assets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// Registry resolves asset ids to display and commissioning metadata. The
// asset inventory is owned by the wider maintenance platform; this engine
// only reads it.
type Registry interface {
	Resolve(assetID string) (*models.AssetInfo, error)
	List() []models.AssetInfo
}

// MemoryRegistry is an in-process Registry used for single-node deployments
// and tests
type MemoryRegistry struct {
	mu     sync.RWMutex
	assets map[string]models.AssetInfo
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		assets: make(map[string]models.AssetInfo),
	}
}

// Register adds or replaces an asset entry
func (r *MemoryRegistry) Register(info models.AssetInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[info.ID] = info
}

// Resolve returns the asset metadata for an id
func (r *MemoryRegistry) Resolve(assetID string) (*models.AssetInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("asset %q not registered", assetID)
	}
	return &info, nil
}

// List returns all registered assets, sorted by id
func (r *MemoryRegistry) List() []models.AssetInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.AssetInfo, 0, len(r.assets))
	for _, info := range r.assets {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
