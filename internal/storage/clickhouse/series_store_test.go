package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func monthlyLineItem(propertyID, accountCode string, year int, month time.Month, value float64) *domain.LineItemPoint {
	ts := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &domain.LineItemPoint{
		PropertyID:   propertyID,
		AccountCode:  accountCode,
		DocumentType: domain.DocumentIncomeStatement,
		PeriodID:     ts.Format("2006-01"),
		TimestampMs:  ts.UnixMilli(),
		Value:        value,
	}
}

func TestSeriesStore_InsertBulkAndGetHistory(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	points := []*domain.LineItemPoint{
		monthlyLineItem("prop-1", "4010", 2023, time.March, 102000),
		monthlyLineItem("prop-1", "4010", 2023, time.January, 100000),
		monthlyLineItem("prop-1", "4010", 2023, time.February, 101000),
		monthlyLineItem("prop-1", "5030", 2023, time.January, 41000),
		monthlyLineItem("prop-2", "4010", 2023, time.January, 88000),
	}

	require.NoError(t, store.InsertBulk(ctx, points))

	endMs := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	history, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, endMs, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Only prop-1/4010 rows, in timestamp order
	assert.Equal(t, "2023-01", history[0].PeriodID)
	assert.Equal(t, "2023-02", history[1].PeriodID)
	assert.Equal(t, "2023-03", history[2].PeriodID)
	assert.InDelta(t, 100000, history[0].Value, 0.0001)
	assert.InDelta(t, 102000, history[2].Value, 0.0001)
}

func TestSeriesStore_LookbackWindow(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	points := []*domain.LineItemPoint{
		monthlyLineItem("prop-1", "4010", 2021, time.June, 90000),
		monthlyLineItem("prop-1", "4010", 2023, time.June, 95000),
		monthlyLineItem("prop-1", "4010", 2024, time.January, 100000),
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	endMs := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	history, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, endMs, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "2023-06", history[0].PeriodID)
	assert.Equal(t, "2024-01", history[1].PeriodID)
}

func TestSeriesStore_InvalidLookback(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	_, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSeriesStore_DuplicateAgainstExisting(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	first := []*domain.LineItemPoint{
		monthlyLineItem("prop-1", "4010", 2023, time.January, 100000),
	}
	require.NoError(t, store.InsertBulk(ctx, first))

	// Same period again; whole batch must fail and leave no partial rows
	second := []*domain.LineItemPoint{
		monthlyLineItem("prop-1", "4010", 2023, time.February, 101000),
		monthlyLineItem("prop-1", "4010", 2023, time.January, 100000),
	}
	err := store.InsertBulk(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	endMs := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	history, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, endMs, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSeriesStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	batch := []*domain.LineItemPoint{
		monthlyLineItem("prop-1", "4010", 2023, time.January, 100000),
		monthlyLineItem("prop-1", "4010", 2023, time.January, 100500),
	}
	err := store.InsertBulk(ctx, batch)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSeriesStore_EmptyBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeriesStore(conn)

	require.NoError(t, store.InsertBulk(ctx, nil))
}
