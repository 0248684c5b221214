package domain

// ScoreComponent records one candidate's contribution to a unified score.
type ScoreComponent struct {
	CandidateID    string
	Bucket         DetectorBucket
	ComponentScore float64 // 0-100 before weighting
	AdjustedWeight float64 // bucket weight after account/maturity adjustment
}

// RiskScore is the unified 0-100 score for one (property, account, period).
// Corresponds to risk_scores table in PostgreSQL. Append-only; re-scoring
// inserts a new row and prior rows remain for audit.
type RiskScore struct {
	ScoreID     string // PRIMARY KEY, deterministic hash
	PropertyID  string
	AccountCode string
	PeriodID    string

	Score      float64 // [0,100]
	Confidence float64 // [0,1]
	Components []ScoreComponent

	AccountType      AccountType
	PropertyMaturity PropertyMaturity
	DetectorCount    int
	WeightVersion    string // DetectorWeightTable.Version used for this run
	ScoredAt         int64  // Unix timestamp in milliseconds
}
