package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// SampleStore is an in-memory implementation of storage.SampleStore.
type SampleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Sample // keyed by (run_id, timestamp)
}

// NewSampleStore creates a new in-memory sample store.
func NewSampleStore() *SampleStore {
	return &SampleStore{
		data: make(map[string]*domain.Sample),
	}
}

// sampleKey generates a unique key for a sample.
func sampleKey(runID string, timestamp int64) string {
	return fmt.Sprintf("%s|%d", runID, timestamp)
}

// Insert adds a new sample. Returns ErrDuplicateKey if (run_id, timestamp) exists.
func (s *SampleStore) Insert(_ context.Context, sample *domain.Sample) error {
	if sample == nil || sample.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sampleKey(sample.RunID, sample.Timestamp)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	sampleCopy := *sample
	s.data[key] = &sampleCopy
	return nil
}

// InsertBulk adds multiple samples atomically. Fails entire batch on any duplicate.
func (s *SampleStore) InsertBulk(_ context.Context, samples []*domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(samples))

	for _, sample := range samples {
		if sample == nil || sample.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := sampleKey(sample.RunID, sample.Timestamp)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, sample := range samples {
		key := sampleKey(sample.RunID, sample.Timestamp)
		sampleCopy := *sample
		s.data[key] = &sampleCopy
	}

	return nil
}

// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
func (s *SampleStore) GetByRunID(_ context.Context, runID string) ([]*domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sample
	for _, sample := range s.data {
		if sample.RunID == runID {
			sampleCopy := *sample
			result = append(result, &sampleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// GetByTimeRange retrieves samples for a run within [start, end] (inclusive).
func (s *SampleStore) GetByTimeRange(_ context.Context, runID string, start, end int64) ([]*domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sample
	for _, sample := range s.data {
		if sample.RunID == runID && sample.Timestamp >= start && sample.Timestamp <= end {
			sampleCopy := *sample
			result = append(result, &sampleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.SampleStore = (*SampleStore)(nil)
