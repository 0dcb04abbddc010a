package store

import (
	"sort"
	"sync"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// Store manages telemetry readings and analytics records in memory. Used as
// the fallback when PostgreSQL is unavailable and as the fixture store in
// tests.
type Store struct {
	mu            sync.RWMutex
	readings      map[string][]models.Reading // stream key -> time-ordered readings
	latest        map[string]*models.Reading  // stream key -> newest reading
	assetSensors  map[string]map[models.SensorType]bool
	maxPerStream  int
	totalReadings int

	analytics *analyticsStore
}

// NewStore creates a new in-memory store. maxPerStream bounds how many
// readings are retained per (asset, sensor) stream.
func NewStore(maxPerStream int) *Store {
	if maxPerStream <= 0 {
		maxPerStream = 1000
	}

	return &Store{
		readings:     make(map[string][]models.Reading),
		latest:       make(map[string]*models.Reading),
		assetSensors: make(map[string]map[models.SensorType]bool),
		maxPerStream: maxPerStream,
		analytics:    newAnalyticsStore(),
	}
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping() error {
	return nil
}

// AddReading appends a reading to its stream, evicting the oldest entry when
// the stream is full
func (s *Store) AddReading(reading models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reading.StreamKey()

	stream := append(s.readings[key], reading)
	if len(stream) > s.maxPerStream {
		stream = stream[1:]
	}
	s.readings[key] = stream

	readingCopy := reading
	s.latest[key] = &readingCopy

	if s.assetSensors[reading.AssetID] == nil {
		s.assetSensors[reading.AssetID] = make(map[models.SensorType]bool)
	}
	s.assetSensors[reading.AssetID][reading.SensorType] = true
	s.totalReadings++
}

// GetLatestReading returns the newest reading of a stream
func (s *Store) GetLatestReading(assetID string, sensor models.SensorType) (*models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.latest[assetID+":"+string(sensor)]
	if !ok {
		return nil, false
	}
	reading := *r
	return &reading, true
}

// GetRecentReadings returns up to limit readings of a stream, oldest first
func (s *Store) GetRecentReadings(assetID string, sensor models.SensorType, limit int) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.readings[assetID+":"+string(sensor)]
	if limit > 0 && len(stream) > limit {
		stream = stream[len(stream)-limit:]
	}

	result := make([]models.Reading, len(stream))
	copy(result, stream)
	return result
}

// GetReadingsSince returns readings of a stream newer than the given time,
// oldest first
func (s *Store) GetReadingsSince(assetID string, sensor models.SensorType, since time.Time) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Reading
	for _, r := range s.readings[assetID+":"+string(sensor)] {
		if r.Timestamp.After(since) {
			result = append(result, r)
		}
	}
	return result
}

// GetReadingCount returns the total number of readings ever ingested
func (s *Store) GetReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalReadings
}

// GetActiveAssets returns the ids of assets with at least one stream, sorted
func (s *Store) GetActiveAssets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]string, 0, len(s.assetSensors))
	for id := range s.assetSensors {
		assets = append(assets, id)
	}
	sort.Strings(assets)
	return assets
}

// GetSensorTypes returns the sensor types seen for an asset, sorted
func (s *Store) GetSensorTypes(assetID string) []models.SensorType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensors := make([]models.SensorType, 0, len(s.assetSensors[assetID]))
	for st := range s.assetSensors[assetID] {
		sensors = append(sensors, st)
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i] < sensors[j] })
	return sensors
}
