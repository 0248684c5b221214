package storage

import (
	"context"

	"property-risk-lab/internal/domain"
)

// SeriesStore provides access to line-item history.
// This is the engine's HistoricalSeriesProvider: read side returns points
// in ascending timestamp order, possibly fewer than the lookback requests.
type SeriesStore interface {
	// InsertBulk adds multiple line-item points.
	// Fails entire batch on duplicate (property, account, doc type, period).
	InsertBulk(ctx context.Context, points []*domain.LineItemPoint) error

	// GetHistory retrieves up to lookbackYears of points for one
	// (property, account, document type), ordered by timestamp ASC.
	// endMs bounds the window on the right (inclusive).
	GetHistory(ctx context.Context, propertyID, accountCode string, docType domain.DocumentType, endMs int64, lookbackYears int) ([]domain.TimePoint, error)
}

// CandidateStore provides access to anomaly_candidates storage.
type CandidateStore interface {
	// Insert adds a new candidate. Returns ErrDuplicateKey if candidate_id exists.
	Insert(ctx context.Context, c *domain.AnomalyCandidate) error

	// GetByID retrieves a candidate by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, candidateID string) (*domain.AnomalyCandidate, error)

	// GetByAccountPeriod retrieves all candidates for one (property, account,
	// period), ordered by detector_id ASC.
	GetByAccountPeriod(ctx context.Context, propertyID, accountCode, periodID string) ([]*domain.AnomalyCandidate, error)

	// AttachScore writes the unified risk score back onto a candidate for
	// audit. This is the single sanctioned update on the otherwise
	// append-only table; it is idempotent and safe to retry.
	// Returns ErrNotFound if the candidate does not exist.
	AttachScore(ctx context.Context, candidateID string, score float64) error
}

// FeedbackStore provides access to anomaly_feedback storage.
type FeedbackStore interface {
	// Insert adds a new feedback record. Returns ErrDuplicateKey if feedback_id exists.
	Insert(ctx context.Context, f *domain.AnomalyFeedback) error

	// GetSince retrieves all feedback created at or after sinceMs,
	// ordered by created_at ASC.
	GetSince(ctx context.Context, sinceMs int64) ([]*domain.AnomalyFeedback, error)
}

// RiskScoreStore provides access to risk_scores storage.
type RiskScoreStore interface {
	// Insert adds a new score. Returns ErrDuplicateKey if score_id exists.
	Insert(ctx context.Context, s *domain.RiskScore) error

	// GetByAccountPeriod retrieves all scores recorded for one (property,
	// account, period), ordered by scored_at ASC. Superseded scores are
	// retained, so the last entry is the current one.
	GetByAccountPeriod(ctx context.Context, propertyID, accountCode, periodID string) ([]*domain.RiskScore, error)
}

// WeightSnapshotStore provides access to weight_snapshots storage.
type WeightSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if version exists.
	Insert(ctx context.Context, t *domain.DetectorWeightTable) error

	// GetLatest retrieves the most recently created snapshot.
	// Returns ErrNotFound if no snapshot has been published yet.
	GetLatest(ctx context.Context) (*domain.DetectorWeightTable, error)
}

// PropertyStore provides access to properties storage.
type PropertyStore interface {
	// Insert adds a new property. Returns ErrDuplicateKey if property_id exists.
	Insert(ctx context.Context, p *domain.Property) error

	// GetByID retrieves a property by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, propertyID string) (*domain.Property, error)
}
