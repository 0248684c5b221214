package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// yearMs is one 365-day year in milliseconds, used for lookback windows.
const yearMs = int64(365) * 24 * 60 * 60 * 1000

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LineItemPoint // keyed by (property, account, doc type, period)
}

// NewSeriesStore creates a new in-memory line-item series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[string]*domain.LineItemPoint),
	}
}

// seriesKey generates a unique key for a line-item point.
func seriesKey(propertyID, accountCode string, docType domain.DocumentType, periodID string) string {
	return fmt.Sprintf("%s|%s|%s|%s", propertyID, accountCode, docType, periodID)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *SeriesStore) InsertBulk(_ context.Context, points []*domain.LineItemPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	for _, p := range points {
		if p == nil || p.PropertyID == "" || p.AccountCode == "" || p.PeriodID == "" {
			return storage.ErrInvalidInput
		}
		key := seriesKey(p.PropertyID, p.AccountCode, p.DocumentType, p.PeriodID)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		key := seriesKey(p.PropertyID, p.AccountCode, p.DocumentType, p.PeriodID)
		pointCopy := *p
		s.data[key] = &pointCopy
	}

	return nil
}

// GetHistory retrieves up to lookbackYears of points ending at endMs,
// ordered by timestamp ASC.
func (s *SeriesStore) GetHistory(_ context.Context, propertyID, accountCode string, docType domain.DocumentType, endMs int64, lookbackYears int) ([]domain.TimePoint, error) {
	if lookbackYears <= 0 {
		return nil, storage.ErrInvalidInput
	}
	startMs := endMs - int64(lookbackYears)*yearMs

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.TimePoint
	for _, p := range s.data {
		if p.PropertyID != propertyID || p.AccountCode != accountCode || p.DocumentType != docType {
			continue
		}
		if p.TimestampMs < startMs || p.TimestampMs > endMs {
			continue
		}
		result = append(result, domain.TimePoint{
			PeriodID:    p.PeriodID,
			TimestampMs: p.TimestampMs,
			Value:       p.Value,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
