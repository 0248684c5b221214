package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func createTestRiskScore(scoreID, periodID string, scoredAt int64) *domain.RiskScore {
	return &domain.RiskScore{
		ScoreID:     scoreID,
		PropertyID:  "prop-1",
		AccountCode: "4010",
		PeriodID:    periodID,
		Score:       61.4,
		Confidence:  0.72,
		Components: []domain.ScoreComponent{
			{
				CandidateID:    "cand-001",
				Bucket:         domain.BucketSeasonal,
				ComponentScore: 85.0,
				AdjustedWeight: 0.276,
			},
			{
				CandidateID:    "cand-002",
				Bucket:         domain.BucketForecastResidual,
				ComponentScore: 40.0,
				AdjustedWeight: 0.24,
			},
		},
		AccountType:      domain.AccountRevenue,
		PropertyMaturity: domain.MaturityEstablished,
		DetectorCount:    2,
		WeightVersion:    "v-test",
		ScoredAt:         scoredAt,
	}
}

func TestRiskScoreStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRiskScoreStore(pool)

	score := createTestRiskScore("score-001", "2024-01", 1704067200000)

	err := store.Insert(ctx, score)
	require.NoError(t, err)

	scores, err := store.GetByAccountPeriod(ctx, "prop-1", "4010", "2024-01")
	require.NoError(t, err)
	require.Len(t, scores, 1)

	retrieved := scores[0]
	assert.Equal(t, score.ScoreID, retrieved.ScoreID)
	assert.InDelta(t, score.Score, retrieved.Score, 0.0001)
	assert.InDelta(t, score.Confidence, retrieved.Confidence, 0.0001)
	assert.Equal(t, score.AccountType, retrieved.AccountType)
	assert.Equal(t, score.PropertyMaturity, retrieved.PropertyMaturity)
	assert.Equal(t, score.DetectorCount, retrieved.DetectorCount)
	assert.Equal(t, score.WeightVersion, retrieved.WeightVersion)
	assert.Equal(t, score.ScoredAt, retrieved.ScoredAt)

	require.Len(t, retrieved.Components, 2)
	assert.Equal(t, "cand-001", retrieved.Components[0].CandidateID)
	assert.Equal(t, domain.BucketSeasonal, retrieved.Components[0].Bucket)
	assert.InDelta(t, 85.0, retrieved.Components[0].ComponentScore, 0.0001)
	assert.InDelta(t, 0.276, retrieved.Components[0].AdjustedWeight, 0.0001)
	assert.Equal(t, domain.BucketForecastResidual, retrieved.Components[1].Bucket)
}

func TestRiskScoreStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRiskScoreStore(pool)

	score := createTestRiskScore("score-dup", "2024-01", 1704067200000)

	require.NoError(t, store.Insert(ctx, score))
	err := store.Insert(ctx, score)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRiskScoreStore_RescoringKeepsHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRiskScoreStore(pool)

	first := createTestRiskScore("score-a", "2024-01", 1000)
	second := createTestRiskScore("score-b", "2024-01", 2000)
	second.Score = 75.0
	second.WeightVersion = "v-recalibrated"

	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, first))

	scores, err := store.GetByAccountPeriod(ctx, "prop-1", "4010", "2024-01")
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// Ordered by scored_at; the last entry is current
	assert.Equal(t, "score-a", scores[0].ScoreID)
	assert.Equal(t, "score-b", scores[1].ScoreID)
	assert.Equal(t, "v-recalibrated", scores[1].WeightVersion)
}
