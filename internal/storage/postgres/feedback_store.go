package postgres

import (
	"context"
	"fmt"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// FeedbackStore implements storage.FeedbackStore using PostgreSQL.
type FeedbackStore struct {
	pool *Pool
}

// NewFeedbackStore creates a new FeedbackStore.
func NewFeedbackStore(pool *Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeedbackStore = (*FeedbackStore)(nil)

// Insert adds a new feedback record. Returns ErrDuplicateKey if feedback_id exists.
func (s *FeedbackStore) Insert(ctx context.Context, f *domain.AnomalyFeedback) error {
	query := `
		INSERT INTO anomaly_feedback (feedback_id, candidate_id, label, reviewer, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		f.FeedbackID,
		f.CandidateID,
		string(f.Label),
		f.Reviewer,
		f.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// GetSince retrieves all feedback created at or after sinceMs, ordered by
// created_at ASC.
func (s *FeedbackStore) GetSince(ctx context.Context, sinceMs int64) ([]*domain.AnomalyFeedback, error) {
	query := `
		SELECT feedback_id, candidate_id, label, reviewer, created_at
		FROM anomaly_feedback
		WHERE created_at >= $1
		ORDER BY created_at ASC, feedback_id ASC
	`

	rows, err := s.pool.Query(ctx, query, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("get feedback since: %w", err)
	}
	defer rows.Close()

	var feedback []*domain.AnomalyFeedback
	for rows.Next() {
		var f domain.AnomalyFeedback
		var label string
		if err := rows.Scan(&f.FeedbackID, &f.CandidateID, &label, &f.Reviewer, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		f.Label = domain.FeedbackLabel(label)
		feedback = append(feedback, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return feedback, nil
}
