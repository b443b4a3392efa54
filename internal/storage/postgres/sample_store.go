package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// SampleStore implements storage.SampleStore using PostgreSQL.
type SampleStore struct {
	pool *Pool
}

// NewSampleStore creates a new SampleStore.
func NewSampleStore(pool *Pool) *SampleStore {
	return &SampleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SampleStore = (*SampleStore)(nil)

const insertSampleQuery = `
	INSERT INTO position_samples (run_id, timestamp, value, price)
	VALUES ($1, $2, $3, $4)
`

// Insert adds a new sample. Returns ErrDuplicateKey if (run_id, timestamp) exists.
func (s *SampleStore) Insert(ctx context.Context, sample *domain.Sample) error {
	if sample == nil || sample.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertSampleQuery,
		sample.RunID,
		sample.Timestamp,
		sample.Value,
		sample.Price,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// InsertBulk adds multiple samples atomically. Fails entire batch on any duplicate.
func (s *SampleStore) InsertBulk(ctx context.Context, samples []*domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sample := range samples {
		if sample == nil || sample.RunID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertSampleQuery,
			sample.RunID,
			sample.Timestamp,
			sample.Value,
			sample.Price,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert sample in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
func (s *SampleStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Sample, error) {
	query := `
		SELECT run_id, timestamp, value, price
		FROM position_samples
		WHERE run_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get samples by run id: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetByTimeRange retrieves samples for a run within [start, end] (inclusive).
func (s *SampleStore) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Sample, error) {
	query := `
		SELECT run_id, timestamp, value, price
		FROM position_samples
		WHERE run_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get samples by time range: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// scanSamples scans multiple rows into a slice of Sample.
func scanSamples(rows pgx.Rows) ([]*domain.Sample, error) {
	var samples []*domain.Sample

	for rows.Next() {
		var sample domain.Sample

		err := rows.Scan(
			&sample.RunID,
			&sample.Timestamp,
			&sample.Value,
			&sample.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}

		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return samples, nil
}
