package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// WeightSnapshotStore implements storage.WeightSnapshotStore using
// PostgreSQL. The bucket weight map is stored as JSONB.
type WeightSnapshotStore struct {
	pool *Pool
}

// NewWeightSnapshotStore creates a new WeightSnapshotStore.
func NewWeightSnapshotStore(pool *Pool) *WeightSnapshotStore {
	return &WeightSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WeightSnapshotStore = (*WeightSnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if version exists.
func (s *WeightSnapshotStore) Insert(ctx context.Context, t *domain.DetectorWeightTable) error {
	weights, err := json.Marshal(t.Weights())
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	query := `
		INSERT INTO weight_snapshots (version, created_at, feedback_count, weights)
		VALUES ($1, $2, $3, $4)
	`

	_, err = s.pool.Exec(ctx, query, t.Version, t.CreatedAt, t.FeedbackCount, weights)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert weight snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recently created snapshot.
func (s *WeightSnapshotStore) GetLatest(ctx context.Context) (*domain.DetectorWeightTable, error) {
	query := `
		SELECT version, created_at, feedback_count, weights
		FROM weight_snapshots
		ORDER BY created_at DESC, version DESC
		LIMIT 1
	`

	var version string
	var createdAt int64
	var feedbackCount int
	var raw []byte
	err := s.pool.QueryRow(ctx, query).Scan(&version, &createdAt, &feedbackCount, &raw)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest weight snapshot: %w", err)
	}

	var weights map[domain.DetectorBucket]float64
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}

	// Stored weights are already normalized; rebuilding through the
	// constructor keeps the invariant either way.
	return domain.NewWeightTable(version, createdAt, feedbackCount, weights), nil
}
