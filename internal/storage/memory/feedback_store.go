package memory

import (
	"context"
	"sort"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// FeedbackStore is an in-memory implementation of storage.FeedbackStore.
type FeedbackStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnomalyFeedback // keyed by feedback_id
}

// NewFeedbackStore creates a new in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		data: make(map[string]*domain.AnomalyFeedback),
	}
}

// Insert adds a new feedback record. Returns ErrDuplicateKey if feedback_id exists.
func (s *FeedbackStore) Insert(_ context.Context, f *domain.AnomalyFeedback) error {
	if f == nil || f.FeedbackID == "" || f.CandidateID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.FeedbackID]; exists {
		return storage.ErrDuplicateKey
	}

	feedbackCopy := *f
	s.data[f.FeedbackID] = &feedbackCopy
	return nil
}

// GetSince retrieves all feedback created at or after sinceMs, ordered by
// created_at ASC.
func (s *FeedbackStore) GetSince(_ context.Context, sinceMs int64) ([]*domain.AnomalyFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnomalyFeedback
	for _, f := range s.data {
		if f.CreatedAt >= sinceMs {
			feedbackCopy := *f
			result = append(result, &feedbackCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].FeedbackID < result[j].FeedbackID
	})

	return result, nil
}

var _ storage.FeedbackStore = (*FeedbackStore)(nil)
