package memory

import (
	"context"
	"sort"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// RiskScoreStore is an in-memory implementation of storage.RiskScoreStore.
type RiskScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RiskScore // keyed by score_id
}

// NewRiskScoreStore creates a new in-memory risk score store.
func NewRiskScoreStore() *RiskScoreStore {
	return &RiskScoreStore{
		data: make(map[string]*domain.RiskScore),
	}
}

// Insert adds a new score. Returns ErrDuplicateKey if score_id exists.
func (s *RiskScoreStore) Insert(_ context.Context, score *domain.RiskScore) error {
	if score == nil || score.ScoreID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[score.ScoreID]; exists {
		return storage.ErrDuplicateKey
	}

	scoreCopy := *score
	scoreCopy.Components = append([]domain.ScoreComponent(nil), score.Components...)
	s.data[score.ScoreID] = &scoreCopy
	return nil
}

// GetByAccountPeriod retrieves all scores for one (property, account,
// period), ordered by scored_at ASC.
func (s *RiskScoreStore) GetByAccountPeriod(_ context.Context, propertyID, accountCode, periodID string) ([]*domain.RiskScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RiskScore
	for _, sc := range s.data {
		if sc.PropertyID == propertyID && sc.AccountCode == accountCode && sc.PeriodID == periodID {
			scoreCopy := *sc
			scoreCopy.Components = append([]domain.ScoreComponent(nil), sc.Components...)
			result = append(result, &scoreCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ScoredAt != result[j].ScoredAt {
			return result[i].ScoredAt < result[j].ScoredAt
		}
		return result[i].ScoreID < result[j].ScoreID
	})

	return result, nil
}

var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)
