package memory

import (
	"context"
	"errors"
	"testing"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func testFeedback(id string, createdAt int64, label domain.FeedbackLabel) *domain.AnomalyFeedback {
	return &domain.AnomalyFeedback{
		FeedbackID:  id,
		CandidateID: "cand-1",
		Label:       label,
		Reviewer:    "analyst-1",
		CreatedAt:   createdAt,
	}
}

func TestFeedbackStore_InsertAndGetSince(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	for _, f := range []*domain.AnomalyFeedback{
		testFeedback("f3", 3000, domain.FeedbackDismissed),
		testFeedback("f1", 1000, domain.FeedbackConfirmed),
		testFeedback("f2", 2000, domain.FeedbackConfirmed),
	} {
		if err := store.Insert(ctx, f); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// sinceMs is inclusive: f2 and f3 qualify, oldest first.
	got, err := store.GetSince(ctx, 2000)
	if err != nil {
		t.Fatalf("GetSince failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].FeedbackID != "f2" || got[1].FeedbackID != "f3" {
		t.Errorf("unexpected order: %s, %s", got[0].FeedbackID, got[1].FeedbackID)
	}
}

func TestFeedbackStore_DuplicateKey(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testFeedback("f1", 1000, domain.FeedbackConfirmed)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.Insert(ctx, testFeedback("f1", 2000, domain.FeedbackDismissed))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestFeedbackStore_InvalidInput(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	err := store.Insert(ctx, &domain.AnomalyFeedback{FeedbackID: "f1"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing candidate_id, got %v", err)
	}
}
