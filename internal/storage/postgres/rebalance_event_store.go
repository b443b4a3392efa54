package postgres

import (
	"context"
	"fmt"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// RebalanceEventStore implements storage.RebalanceEventStore using PostgreSQL.
type RebalanceEventStore struct {
	pool *Pool
}

// NewRebalanceEventStore creates a new RebalanceEventStore.
func NewRebalanceEventStore(pool *Pool) *RebalanceEventStore {
	return &RebalanceEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RebalanceEventStore = (*RebalanceEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if (run_id, timestamp) exists.
func (s *RebalanceEventStore) Insert(ctx context.Context, e *domain.RebalanceEvent) error {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rebalance_events (run_id, timestamp, value, price)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, e.RunID, e.Timestamp, e.Value, e.Price)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert rebalance event: %w", err)
	}
	return nil
}

// GetByRunID retrieves all events for a run, ordered by timestamp ASC.
func (s *RebalanceEventStore) GetByRunID(ctx context.Context, runID string) ([]*domain.RebalanceEvent, error) {
	query := `
		SELECT run_id, timestamp, value, price
		FROM rebalance_events
		WHERE run_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get rebalance events by run id: %w", err)
	}
	defer rows.Close()

	var events []*domain.RebalanceEvent
	for rows.Next() {
		var e domain.RebalanceEvent
		if err := rows.Scan(&e.RunID, &e.Timestamp, &e.Value, &e.Price); err != nil {
			return nil, fmt.Errorf("scan rebalance event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rebalance event rows: %w", err)
	}

	return events, nil
}
