package clickhouse

import (
	"context"
	"fmt"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// yearMs is one 365-day year in milliseconds, used for lookback windows.
const yearMs = int64(365) * 24 * 60 * 60 * 1000

// SeriesStore implements storage.SeriesStore using ClickHouse.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate
// (property, account, doc type, period).
func (s *SeriesStore) InsertBulk(ctx context.Context, points []*domain.LineItemPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		propertyID   string
		accountCode  string
		documentType domain.DocumentType
		periodID     string
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.PropertyID == "" || p.AccountCode == "" || p.PeriodID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.PropertyID, p.AccountCode, p.DocumentType, p.PeriodID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// MergeTree doesn't enforce uniqueness, so check existing rows first
	for _, p := range points {
		exists, err := s.exists(ctx, p.PropertyID, p.AccountCode, p.DocumentType, p.PeriodID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO line_items (
			property_id, account_code, document_type, period_id, timestamp_ms, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.PropertyID, p.AccountCode, string(p.DocumentType),
			p.PeriodID, uint64(p.TimestampMs), p.Value,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetHistory retrieves up to lookbackYears of points ending at endMs,
// ordered by timestamp ASC.
func (s *SeriesStore) GetHistory(ctx context.Context, propertyID, accountCode string, docType domain.DocumentType, endMs int64, lookbackYears int) ([]domain.TimePoint, error) {
	if lookbackYears <= 0 {
		return nil, storage.ErrInvalidInput
	}
	startMs := endMs - int64(lookbackYears)*yearMs
	if startMs < 0 {
		// uint64 bind parameter; a pre-epoch window start means no lower bound
		startMs = 0
	}

	query := `
		SELECT period_id, timestamp_ms, value
		FROM line_items
		WHERE property_id = ? AND account_code = ? AND document_type = ?
		  AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, propertyID, accountCode, string(docType), uint64(startMs), uint64(endMs))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	return scanTimePoints(rows)
}

// exists checks if a point with the given key exists.
func (s *SeriesStore) exists(ctx context.Context, propertyID, accountCode string, docType domain.DocumentType, periodID string) (bool, error) {
	query := `
		SELECT count(*) FROM line_items
		WHERE property_id = ? AND account_code = ? AND document_type = ? AND period_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, propertyID, accountCode, string(docType), periodID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanTimePoints scans multiple rows.
func scanTimePoints(rows chRows) ([]domain.TimePoint, error) {
	var points []domain.TimePoint

	for rows.Next() {
		var p domain.TimePoint
		var timestampMs uint64

		if err := rows.Scan(&p.PeriodID, &timestampMs, &p.Value); err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line item rows: %w", err)
	}

	return points, nil
}
