package postgres

import (
	"context"
	"fmt"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// PropertyStore implements storage.PropertyStore using PostgreSQL.
type PropertyStore struct {
	pool *Pool
}

// NewPropertyStore creates a new PropertyStore.
func NewPropertyStore(pool *Pool) *PropertyStore {
	return &PropertyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PropertyStore = (*PropertyStore)(nil)

// Insert adds a new property. Returns ErrDuplicateKey if property_id exists.
func (s *PropertyStore) Insert(ctx context.Context, p *domain.Property) error {
	query := `
		INSERT INTO properties (property_id, name, acquisition_date_ms, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, p.PropertyID, p.Name, p.AcquisitionDateMs, p.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// GetByID retrieves a property by its ID. Returns ErrNotFound if not exists.
func (s *PropertyStore) GetByID(ctx context.Context, propertyID string) (*domain.Property, error) {
	query := `
		SELECT property_id, name, acquisition_date_ms, created_at
		FROM properties
		WHERE property_id = $1
	`

	var p domain.Property
	err := s.pool.QueryRow(ctx, query, propertyID).Scan(&p.PropertyID, &p.Name, &p.AcquisitionDateMs, &p.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get property by id: %w", err)
	}
	return &p, nil
}
