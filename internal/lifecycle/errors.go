package lifecycle

import (
	"fmt"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// InvalidTransitionError rejects an illegal lifecycle transition. The current
// state is always included so the caller can reconcile; it is never silently
// ignored (the idempotent same-state retry is the one exception, and that is
// a success, not an error).
type InvalidTransitionError struct {
	PredictionID string
	From         models.PredictionStatus
	To           models.PredictionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("prediction %s cannot transition from %s to %s", e.PredictionID, e.From, e.To)
}
