package memory

import (
	"context"
	"sort"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// CandidateStore is an in-memory implementation of storage.CandidateStore.
type CandidateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnomalyCandidate // keyed by candidate_id
}

// NewCandidateStore creates a new in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{
		data: make(map[string]*domain.AnomalyCandidate),
	}
}

// Insert adds a new candidate. Returns ErrDuplicateKey if candidate_id exists.
func (s *CandidateStore) Insert(_ context.Context, c *domain.AnomalyCandidate) error {
	if c == nil || c.CandidateID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.CandidateID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	candidateCopy := *c
	s.data[c.CandidateID] = &candidateCopy
	return nil
}

// GetByID retrieves a candidate by its ID. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByID(_ context.Context, candidateID string) (*domain.AnomalyCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[candidateID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	candidateCopy := *c
	return &candidateCopy, nil
}

// GetByAccountPeriod retrieves all candidates for one (property, account,
// period), ordered by detector_id ASC.
func (s *CandidateStore) GetByAccountPeriod(_ context.Context, propertyID, accountCode, periodID string) ([]*domain.AnomalyCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnomalyCandidate
	for _, c := range s.data {
		if c.PropertyID == propertyID && c.AccountCode == accountCode && c.PeriodID == periodID {
			candidateCopy := *c
			result = append(result, &candidateCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DetectorID < result[j].DetectorID
	})

	return result, nil
}

// AttachScore writes the unified risk score back onto a candidate.
// Idempotent; repeating the same write leaves the record unchanged.
func (s *CandidateStore) AttachScore(_ context.Context, candidateID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[candidateID]
	if !exists {
		return storage.ErrNotFound
	}

	scoreCopy := score
	c.RiskScore = &scoreCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.CandidateStore = (*CandidateStore)(nil)
