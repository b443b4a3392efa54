package memory

import (
	"context"
	"errors"
	"testing"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestRebalanceEventStore_InsertAndGet(t *testing.T) {
	store := NewRebalanceEventStore()
	ctx := context.Background()

	events := []*domain.RebalanceEvent{
		{RunID: "run-1", Timestamp: 2000, Value: 10010, Price: 2400},
		{RunID: "run-1", Timestamp: 1000, Value: 10000, Price: 2350},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].Timestamp != 1000 || result[1].Timestamp != 2000 {
		t.Errorf("Results not ordered by timestamp: %d, %d", result[0].Timestamp, result[1].Timestamp)
	}
}

func TestRebalanceEventStore_DuplicateKey(t *testing.T) {
	store := NewRebalanceEventStore()
	ctx := context.Background()

	event := &domain.RebalanceEvent{RunID: "run-1", Timestamp: 1000}

	if err := store.Insert(ctx, event); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, event)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRebalanceEventStore_InvalidInput(t *testing.T) {
	store := NewRebalanceEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil event, got %v", err)
	}
	if err := store.Insert(ctx, &domain.RebalanceEvent{RunID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty RunID, got %v", err)
	}
}

func TestRebalanceEventStore_IsolatesRuns(t *testing.T) {
	store := NewRebalanceEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.RebalanceEvent{RunID: "run-1", Timestamp: 1000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.RebalanceEvent{RunID: "run-2", Timestamp: 1000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, _ := store.GetByRunID(ctx, "run-1")
	if len(result) != 1 {
		t.Errorf("Expected 1 event for run-1, got %d", len(result))
	}
}
