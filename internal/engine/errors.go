package engine

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a detector abstains because the window
// holds too few readings for reliable statistics. Recoverable: the next cycle
// retries with more data.
var ErrInsufficientData = errors.New("insufficient readings for detection")

// ModelConfigurationError reports unusable model parameters. Scoring for the
// affected asset is skipped for the cycle and the problem is surfaced to
// operators rather than retried.
type ModelConfigurationError struct {
	AssetType string
	ModelType string
	Reason    string
}

func (e *ModelConfigurationError) Error() string {
	return fmt.Sprintf("model configuration invalid for %s/%s: %s", e.AssetType, e.ModelType, e.Reason)
}
