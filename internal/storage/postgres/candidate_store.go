package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// CandidateStore implements storage.CandidateStore using PostgreSQL.
type CandidateStore struct {
	pool *Pool
}

// NewCandidateStore creates a new CandidateStore.
func NewCandidateStore(pool *Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandidateStore = (*CandidateStore)(nil)

const candidateColumns = `
	candidate_id, property_id, account_code, document_type, period_id, detector_id,
	baseline_type, actual_value, expected_value, deviation, deviation_pct,
	deviation_pct_valid, z_score, severity, confidence, method, risk_score, detected_at
`

// Insert adds a new candidate. Returns ErrDuplicateKey if candidate_id exists.
func (s *CandidateStore) Insert(ctx context.Context, c *domain.AnomalyCandidate) error {
	query := `
		INSERT INTO anomaly_candidates (
			candidate_id, property_id, account_code, document_type, period_id, detector_id,
			baseline_type, actual_value, expected_value, deviation, deviation_pct,
			deviation_pct_valid, z_score, severity, confidence, method, risk_score, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := s.pool.Exec(ctx, query,
		c.CandidateID,
		c.PropertyID,
		c.AccountCode,
		string(c.DocumentType),
		c.PeriodID,
		c.DetectorID,
		string(c.BaselineType),
		c.ActualValue,
		c.ExpectedValue,
		c.Deviation,
		c.DeviationPct,
		c.DeviationPctValid,
		c.ZScore,
		string(c.Severity),
		c.Confidence,
		c.Method,
		c.RiskScore,
		c.DetectedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// GetByID retrieves a candidate by its ID. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByID(ctx context.Context, candidateID string) (*domain.AnomalyCandidate, error) {
	query := `SELECT ` + candidateColumns + `
		FROM anomaly_candidates
		WHERE candidate_id = $1
	`

	row := s.pool.QueryRow(ctx, query, candidateID)
	c, err := scanCandidate(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get candidate by id: %w", err)
	}
	return c, nil
}

// GetByAccountPeriod retrieves all candidates for one (property, account,
// period), ordered by detector_id ASC.
func (s *CandidateStore) GetByAccountPeriod(ctx context.Context, propertyID, accountCode, periodID string) ([]*domain.AnomalyCandidate, error) {
	query := `SELECT ` + candidateColumns + `
		FROM anomaly_candidates
		WHERE property_id = $1 AND account_code = $2 AND period_id = $3
		ORDER BY detector_id ASC
	`

	rows, err := s.pool.Query(ctx, query, propertyID, accountCode, periodID)
	if err != nil {
		return nil, fmt.Errorf("get candidates by account period: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.AnomalyCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return candidates, nil
}

// AttachScore writes the unified risk score back onto a candidate.
// Idempotent; returns ErrNotFound if the candidate does not exist.
func (s *CandidateStore) AttachScore(ctx context.Context, candidateID string, score float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE anomaly_candidates SET risk_score = $2 WHERE candidate_id = $1`,
		candidateID, score,
	)
	if err != nil {
		return fmt.Errorf("attach score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanCandidate scans a single row into an AnomalyCandidate.
func scanCandidate(row pgx.Row) (*domain.AnomalyCandidate, error) {
	var c domain.AnomalyCandidate
	var docType, baselineType, severity string

	err := row.Scan(
		&c.CandidateID,
		&c.PropertyID,
		&c.AccountCode,
		&docType,
		&c.PeriodID,
		&c.DetectorID,
		&baselineType,
		&c.ActualValue,
		&c.ExpectedValue,
		&c.Deviation,
		&c.DeviationPct,
		&c.DeviationPctValid,
		&c.ZScore,
		&severity,
		&c.Confidence,
		&c.Method,
		&c.RiskScore,
		&c.DetectedAt,
	)
	if err != nil {
		return nil, err
	}

	c.DocumentType = domain.DocumentType(docType)
	c.BaselineType = domain.BaselineType(baselineType)
	c.Severity = domain.Severity(severity)
	return &c, nil
}
