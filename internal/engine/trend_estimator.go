package engine

import (
	"sync"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// TrendEstimator maintains a double-exponentially-smoothed level and trend
// (Holt's method) per sensor stream. The smoothed slope is used both as an
// input factor for remaining-life estimation and as a standalone degradation
// signal when it exceeds the model-configured threshold.
type TrendEstimator struct {
	mu     sync.RWMutex
	states map[string]*holtState
}

type holtState struct {
	level       float64
	trend       float64
	samples     int
	initialized bool
}

// NewTrendEstimator creates an estimator with no stream state
func NewTrendEstimator() *TrendEstimator {
	return &TrendEstimator{
		states: make(map[string]*holtState),
	}
}

// Update feeds the next value of a stream and returns the smoothed level and
// trend slope. Initial state: level = first observation, trend = 0.
func (te *TrendEstimator) Update(streamKey string, value, alpha, beta float64) (smoothed, slope float64) {
	te.mu.Lock()
	defer te.mu.Unlock()

	st, ok := te.states[streamKey]
	if !ok {
		st = &holtState{}
		te.states[streamKey] = st
	}

	if !st.initialized {
		st.level = value
		st.trend = 0
		st.samples = 1
		st.initialized = true
		return st.level, st.trend
	}

	prevLevel := st.level
	st.level = alpha*value + (1-alpha)*st.level
	st.trend = beta*(st.level-prevLevel) + (1-beta)*st.trend
	st.samples++

	return st.level, st.trend
}

// Replay resets a stream and feeds a window of time-ordered readings through
// it. Used to rebuild state after a restart before scoring.
func (te *TrendEstimator) Replay(streamKey string, readings []models.Reading, alpha, beta float64) (smoothed, slope float64) {
	te.Reset(streamKey)
	for _, r := range readings {
		smoothed, slope = te.Update(streamKey, r.Value, alpha, beta)
	}
	return smoothed, slope
}

// Snapshot returns the current smoothed level and slope for a stream without
// mutating it. ok is false when the stream has never been updated.
func (te *TrendEstimator) Snapshot(streamKey string) (smoothed, slope float64, samples int, ok bool) {
	te.mu.RLock()
	defer te.mu.RUnlock()

	st, found := te.states[streamKey]
	if !found || !st.initialized {
		return 0, 0, 0, false
	}
	return st.level, st.trend, st.samples, true
}

// Reset discards the state for a stream
func (te *TrendEstimator) Reset(streamKey string) {
	te.mu.Lock()
	defer te.mu.Unlock()
	delete(te.states, streamKey)
}
