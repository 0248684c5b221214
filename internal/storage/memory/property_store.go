package memory

import (
	"context"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// PropertyStore is an in-memory implementation of storage.PropertyStore.
type PropertyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Property // keyed by property_id
}

// NewPropertyStore creates a new in-memory property store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{
		data: make(map[string]*domain.Property),
	}
}

// Insert adds a new property. Returns ErrDuplicateKey if property_id exists.
func (s *PropertyStore) Insert(_ context.Context, p *domain.Property) error {
	if p == nil || p.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PropertyID]; exists {
		return storage.ErrDuplicateKey
	}

	propertyCopy := *p
	s.data[p.PropertyID] = &propertyCopy
	return nil
}

// GetByID retrieves a property by its ID. Returns ErrNotFound if not exists.
func (s *PropertyStore) GetByID(_ context.Context, propertyID string) (*domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[propertyID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	propertyCopy := *p
	return &propertyCopy, nil
}

var _ storage.PropertyStore = (*PropertyStore)(nil)
