package memory

import (
	"context"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// WeightSnapshotStore is an in-memory implementation of storage.WeightSnapshotStore.
type WeightSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.DetectorWeightTable // append order = creation order
	seen map[string]struct{}           // versions already inserted
}

// NewWeightSnapshotStore creates a new in-memory weight snapshot store.
func NewWeightSnapshotStore() *WeightSnapshotStore {
	return &WeightSnapshotStore{
		seen: make(map[string]struct{}),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if version exists.
// Snapshots are immutable, so no defensive copy is required.
func (s *WeightSnapshotStore) Insert(_ context.Context, t *domain.DetectorWeightTable) error {
	if t == nil || t.Version == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[t.Version]; exists {
		return storage.ErrDuplicateKey
	}
	s.seen[t.Version] = struct{}{}
	s.data = append(s.data, t)
	return nil
}

// GetLatest retrieves the most recently created snapshot.
func (s *WeightSnapshotStore) GetLatest(_ context.Context) (*domain.DetectorWeightTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return nil, storage.ErrNotFound
	}

	latest := s.data[0]
	for _, t := range s.data[1:] {
		if t.CreatedAt >= latest.CreatedAt {
			latest = t
		}
	}
	return latest, nil
}

var _ storage.WeightSnapshotStore = (*WeightSnapshotStore)(nil)
