package memory

import (
	"context"
	"sort"
	"sync"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// RebalanceEventStore is an in-memory implementation of storage.RebalanceEventStore.
type RebalanceEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RebalanceEvent // keyed by (run_id, timestamp)
}

// NewRebalanceEventStore creates a new in-memory rebalance event store.
func NewRebalanceEventStore() *RebalanceEventStore {
	return &RebalanceEventStore{
		data: make(map[string]*domain.RebalanceEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if (run_id, timestamp) exists.
func (s *RebalanceEventStore) Insert(_ context.Context, e *domain.RebalanceEvent) error {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sampleKey(e.RunID, e.Timestamp)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[key] = &eventCopy
	return nil
}

// GetByRunID retrieves all events for a run, ordered by timestamp ASC.
func (s *RebalanceEventStore) GetByRunID(_ context.Context, runID string) ([]*domain.RebalanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RebalanceEvent
	for _, e := range s.data {
		if e.RunID == runID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.RebalanceEventStore = (*RebalanceEventStore)(nil)
