package memory

import (
	"context"
	"errors"
	"testing"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{
		RunID:          "run-1",
		Pool:           "0xpool",
		Chain:          "ethereum",
		Symbol:         "ETHUSDT",
		StartTime:      1700000000,
		EndTime:        1700086400,
		InitialCapital: 10000,
		FinalValue:     10250.5,
		RebalanceCount: 3,
		CreatedAt:      1700090000,
	}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.FinalValue != 10250.5 {
		t.Errorf("Expected final value 10250.5, got %f", got.FinalValue)
	}
	if got.RebalanceCount != 3 {
		t.Errorf("Expected 3 rebalances, got %d", got.RebalanceCount)
	}
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{RunID: "run-1", Pool: "0xpool"}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, run)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_NotFound(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_GetByPool(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	runs := []*domain.Run{
		{RunID: "run-2", Pool: "0xa", CreatedAt: 2000},
		{RunID: "run-1", Pool: "0xa", CreatedAt: 1000},
		{RunID: "run-3", Pool: "0xb", CreatedAt: 1500},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByPool(ctx, "0xa")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(result))
	}
	if result[0].RunID != "run-1" || result[1].RunID != "run-2" {
		t.Errorf("Results not ordered by created_at: %s, %s", result[0].RunID, result[1].RunID)
	}
}

func TestRunStore_InvalidInput(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil run, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Run{RunID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty RunID, got %v", err)
	}
}

func TestRunStore_CopySemantics(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{RunID: "run-1", FinalValue: 100}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the inserted struct must not affect stored data
	run.FinalValue = 999

	got, _ := store.GetByID(ctx, "run-1")
	if got.FinalValue != 100 {
		t.Errorf("Store leaked external mutation: got %f", got.FinalValue)
	}
}
