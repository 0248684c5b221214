package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func createTestCandidate(candidateID, propertyID, accountCode, periodID, detectorID string) *domain.AnomalyCandidate {
	return &domain.AnomalyCandidate{
		CandidateID:       candidateID,
		PropertyID:        propertyID,
		AccountCode:       accountCode,
		DocumentType:      domain.DocumentIncomeStatement,
		PeriodID:          periodID,
		DetectorID:        detectorID,
		BaselineType:      domain.BaselineSeasonal,
		ActualValue:       200000,
		ExpectedValue:     100000,
		Deviation:         100000,
		DeviationPct:      100,
		DeviationPctValid: true,
		ZScore:            4.2,
		Severity:          domain.SeverityCritical,
		Confidence:        0.85,
		Method:            "decomposition",
		DetectedAt:        1704067200000,
	}
}

func TestCandidateStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	c := createTestCandidate("cand-001", "prop-1", "4010", "2024-01", "seasonal_baseline")

	err := store.Insert(ctx, c)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "cand-001")
	require.NoError(t, err)

	assert.Equal(t, c.CandidateID, retrieved.CandidateID)
	assert.Equal(t, c.PropertyID, retrieved.PropertyID)
	assert.Equal(t, c.AccountCode, retrieved.AccountCode)
	assert.Equal(t, c.DocumentType, retrieved.DocumentType)
	assert.Equal(t, c.PeriodID, retrieved.PeriodID)
	assert.Equal(t, c.DetectorID, retrieved.DetectorID)
	assert.Equal(t, c.BaselineType, retrieved.BaselineType)
	assert.InDelta(t, c.ActualValue, retrieved.ActualValue, 0.0001)
	assert.InDelta(t, c.ExpectedValue, retrieved.ExpectedValue, 0.0001)
	assert.InDelta(t, c.Deviation, retrieved.Deviation, 0.0001)
	assert.InDelta(t, c.DeviationPct, retrieved.DeviationPct, 0.0001)
	assert.Equal(t, c.DeviationPctValid, retrieved.DeviationPctValid)
	assert.InDelta(t, c.ZScore, retrieved.ZScore, 0.0001)
	assert.Equal(t, c.Severity, retrieved.Severity)
	assert.InDelta(t, c.Confidence, retrieved.Confidence, 0.0001)
	assert.Equal(t, c.Method, retrieved.Method)
	assert.Nil(t, retrieved.RiskScore)
	assert.Equal(t, c.DetectedAt, retrieved.DetectedAt)
}

func TestCandidateStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	c := createTestCandidate("cand-dup", "prop-1", "4010", "2024-01", "seasonal_baseline")

	err := store.Insert(ctx, c)
	require.NoError(t, err)

	err = store.Insert(ctx, c)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCandidateStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidateStore_GetByAccountPeriod(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	// Inserted out of detector order; read back ordered by detector_id.
	forecast := createTestCandidate("cand-b", "prop-1", "4010", "2024-01", "forecast_residual")
	forecast.BaselineType = domain.BaselineForecast
	seasonal := createTestCandidate("cand-a", "prop-1", "4010", "2024-01", "seasonal_baseline")
	other := createTestCandidate("cand-c", "prop-1", "4010", "2024-02", "seasonal_baseline")

	require.NoError(t, store.Insert(ctx, forecast))
	require.NoError(t, store.Insert(ctx, seasonal))
	require.NoError(t, store.Insert(ctx, other))

	candidates, err := store.GetByAccountPeriod(ctx, "prop-1", "4010", "2024-01")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "forecast_residual", candidates[0].DetectorID)
	assert.Equal(t, "seasonal_baseline", candidates[1].DetectorID)
}

func TestCandidateStore_AttachScore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	c := createTestCandidate("cand-score", "prop-1", "4010", "2024-01", "seasonal_baseline")
	require.NoError(t, store.Insert(ctx, c))

	err := store.AttachScore(ctx, "cand-score", 72.5)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "cand-score")
	require.NoError(t, err)
	require.NotNil(t, retrieved.RiskScore)
	assert.InDelta(t, 72.5, *retrieved.RiskScore, 0.0001)

	// Retry with the same value is safe
	err = store.AttachScore(ctx, "cand-score", 72.5)
	require.NoError(t, err)
}

func TestCandidateStore_AttachScoreNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCandidateStore(pool)

	err := store.AttachScore(ctx, "missing", 50.0)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
