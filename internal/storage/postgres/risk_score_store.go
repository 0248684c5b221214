package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// RiskScoreStore implements storage.RiskScoreStore using PostgreSQL.
// Score components are stored as a JSONB breakdown.
type RiskScoreStore struct {
	pool *Pool
}

// NewRiskScoreStore creates a new RiskScoreStore.
func NewRiskScoreStore(pool *Pool) *RiskScoreStore {
	return &RiskScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)

// Insert adds a new score. Returns ErrDuplicateKey if score_id exists.
func (s *RiskScoreStore) Insert(ctx context.Context, score *domain.RiskScore) error {
	components, err := json.Marshal(score.Components)
	if err != nil {
		return fmt.Errorf("marshal score components: %w", err)
	}

	query := `
		INSERT INTO risk_scores (
			score_id, property_id, account_code, period_id, score, confidence,
			components, account_type, property_maturity, detector_count, weight_version, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.pool.Exec(ctx, query,
		score.ScoreID,
		score.PropertyID,
		score.AccountCode,
		score.PeriodID,
		score.Score,
		score.Confidence,
		components,
		string(score.AccountType),
		string(score.PropertyMaturity),
		score.DetectorCount,
		score.WeightVersion,
		score.ScoredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert risk score: %w", err)
	}
	return nil
}

// GetByAccountPeriod retrieves all scores recorded for one (property,
// account, period), ordered by scored_at ASC.
func (s *RiskScoreStore) GetByAccountPeriod(ctx context.Context, propertyID, accountCode, periodID string) ([]*domain.RiskScore, error) {
	query := `
		SELECT score_id, property_id, account_code, period_id, score, confidence,
			components, account_type, property_maturity, detector_count, weight_version, scored_at
		FROM risk_scores
		WHERE property_id = $1 AND account_code = $2 AND period_id = $3
		ORDER BY scored_at ASC, score_id ASC
	`

	rows, err := s.pool.Query(ctx, query, propertyID, accountCode, periodID)
	if err != nil {
		return nil, fmt.Errorf("get risk scores by account period: %w", err)
	}
	defer rows.Close()

	var scores []*domain.RiskScore
	for rows.Next() {
		var sc domain.RiskScore
		var components []byte
		var accountType, maturity string

		err := rows.Scan(
			&sc.ScoreID,
			&sc.PropertyID,
			&sc.AccountCode,
			&sc.PeriodID,
			&sc.Score,
			&sc.Confidence,
			&components,
			&accountType,
			&maturity,
			&sc.DetectorCount,
			&sc.WeightVersion,
			&sc.ScoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan risk score row: %w", err)
		}

		if err := json.Unmarshal(components, &sc.Components); err != nil {
			return nil, fmt.Errorf("unmarshal score components: %w", err)
		}
		sc.AccountType = domain.AccountType(accountType)
		sc.PropertyMaturity = domain.PropertyMaturity(maturity)
		scores = append(scores, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk score rows: %w", err)
	}
	return scores, nil
}
