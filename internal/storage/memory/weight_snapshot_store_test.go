package memory

import (
	"context"
	"errors"
	"testing"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func TestWeightSnapshotStore_GetLatest(t *testing.T) {
	store := NewWeightSnapshotStore()
	ctx := context.Background()

	older := domain.NewWeightTable("v1", 1000, 0, domain.DefaultBucketWeights())
	newer := domain.NewWeightTable("v2", 2000, 10, domain.DefaultBucketWeights())

	// Insert newest first; GetLatest goes by created_at, not insert order.
	if err := store.Insert(ctx, newer); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, older); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.Version != "v2" {
		t.Errorf("Version = %s, want v2", got.Version)
	}
	if got.FeedbackCount != 10 {
		t.Errorf("FeedbackCount = %d, want 10", got.FeedbackCount)
	}
}

func TestWeightSnapshotStore_Empty(t *testing.T) {
	store := NewWeightSnapshotStore()
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestWeightSnapshotStore_DuplicateVersion(t *testing.T) {
	store := NewWeightSnapshotStore()
	ctx := context.Background()

	first := domain.NewWeightTable("v1", 1000, 0, domain.DefaultBucketWeights())
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	again := domain.NewWeightTable("v1", 2000, 5, domain.DefaultBucketWeights())
	err := store.Insert(ctx, again)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
