package domain

// BaselineType identifies the modeling family that produced a candidate.
// Closed set; detector dispatch switches on these values, never on
// runtime type inspection.
type BaselineType string

const (
	BaselineSeasonal          BaselineType = "SEASONAL"
	BaselineForecast          BaselineType = "FORECAST"
	BaselineStatistical       BaselineType = "STATISTICAL"
	BaselineML                BaselineType = "ML"
	BaselineRobustStatistical BaselineType = "ROBUST_STATISTICAL"
	BaselineCrossStatement    BaselineType = "CROSS_STATEMENT"
)

// Severity grades how far a value departs from its baseline.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities for comparison: LOW=0 ... CRITICAL=3.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AnomalyCandidate is one detector's finding for a (property, account,
// period). Corresponds to anomaly_candidates table in PostgreSQL.
// Append-only; the only sanctioned update is the scorer writing RiskScore
// back for audit.
type AnomalyCandidate struct {
	CandidateID  string // PRIMARY KEY, deterministic hash
	PropertyID   string
	AccountCode  string
	DocumentType DocumentType
	PeriodID     string
	DetectorID   string // emitting detector, e.g. "seasonal_baseline"

	BaselineType  BaselineType
	ActualValue   float64
	ExpectedValue float64
	Deviation     float64 // actual - expected
	// DeviationPct is deviation / expected × 100. When expected is zero the
	// field holds the 0 sentinel and DeviationPctValid is false.
	DeviationPct      float64
	DeviationPctValid bool
	ZScore            float64
	Severity          Severity
	Confidence        float64 // detector self-assessed reliability, [0,1]
	Method            string  // winning sub-method, e.g. "decomposition", "ari(1,1)"

	RiskScore  *float64 // unified score written back by the scorer
	DetectedAt int64    // Unix timestamp in milliseconds
}
