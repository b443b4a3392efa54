package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, pool, chain, symbol, start_time, end_time,
			initial_capital, final_value, rebalance_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID,
		r.Pool,
		r.Chain,
		r.Symbol,
		r.StartTime,
		r.EndTime,
		r.InitialCapital,
		r.FinalValue,
		r.RebalanceCount,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	query := `
		SELECT run_id, pool, chain, symbol, start_time, end_time,
		       initial_capital, final_value, rebalance_count, created_at
		FROM backtest_runs
		WHERE run_id = $1
	`

	var r domain.Run
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID,
		&r.Pool,
		&r.Chain,
		&r.Symbol,
		&r.StartTime,
		&r.EndTime,
		&r.InitialCapital,
		&r.FinalValue,
		&r.RebalanceCount,
		&r.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return &r, nil
}

// GetByPool retrieves all runs for a pool address, ordered by created_at ASC.
func (s *RunStore) GetByPool(ctx context.Context, pool string) ([]*domain.Run, error) {
	query := `
		SELECT run_id, pool, chain, symbol, start_time, end_time,
		       initial_capital, final_value, rebalance_count, created_at
		FROM backtest_runs
		WHERE pool = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("get runs by pool: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs, ordered by created_at ASC.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.Run, error) {
	query := `
		SELECT run_id, pool, chain, symbol, start_time, end_time,
		       initial_capital, final_value, rebalance_count, created_at
		FROM backtest_runs
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns scans multiple rows into a slice of Run.
func scanRuns(rows pgx.Rows) ([]*domain.Run, error) {
	var runs []*domain.Run

	for rows.Next() {
		var r domain.Run

		err := rows.Scan(
			&r.RunID,
			&r.Pool,
			&r.Chain,
			&r.Symbol,
			&r.StartTime,
			&r.EndTime,
			&r.InitialCapital,
			&r.FinalValue,
			&r.RebalanceCount,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
