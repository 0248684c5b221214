package memory

import (
	"context"
	"errors"
	"testing"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

func monthlyPoint(period string, monthIdx int, value float64) *domain.LineItemPoint {
	return &domain.LineItemPoint{
		PropertyID:   "prop-1",
		AccountCode:  "4010",
		DocumentType: domain.DocumentIncomeStatement,
		PeriodID:     period,
		TimestampMs:  int64(monthIdx) * 30 * 24 * 60 * 60 * 1000,
		Value:        value,
	}
}

func TestSeriesStore_GetHistory_Ordered(t *testing.T) {
	store := NewSeriesStore()
	ctx := context.Background()

	// Insert out of order; reads must come back ascending.
	points := []*domain.LineItemPoint{
		monthlyPoint("2024-03", 3, 300),
		monthlyPoint("2024-01", 1, 100),
		monthlyPoint("2024-02", 2, 200),
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, yearMs, 3)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].TimestampMs >= got[i].TimestampMs {
			t.Errorf("points not in ascending order at index %d", i)
		}
	}
	if got[0].Value != 100 || got[2].Value != 300 {
		t.Errorf("unexpected values: first=%f last=%f", got[0].Value, got[2].Value)
	}
}

func TestSeriesStore_GetHistory_LookbackWindow(t *testing.T) {
	store := NewSeriesStore()
	ctx := context.Background()

	old := monthlyPoint("2020-01", 0, 50)
	recent := monthlyPoint("2024-01", 40, 100)
	if err := store.InsertBulk(ctx, []*domain.LineItemPoint{old, recent}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// One-year lookback ending at the recent point excludes the old one.
	got, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, recent.TimestampMs, 1)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 point within lookback, got %d", len(got))
	}
	if got[0].PeriodID != "2024-01" {
		t.Errorf("PeriodID = %s, want 2024-01", got[0].PeriodID)
	}
}

func TestSeriesStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	store := NewSeriesStore()
	ctx := context.Background()

	points := []*domain.LineItemPoint{
		monthlyPoint("2024-01", 1, 100),
		monthlyPoint("2024-01", 1, 100),
	}
	err := store.InsertBulk(ctx, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Failed batch must not insert anything.
	got, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, yearMs, 3)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store after failed batch, got %d points", len(got))
	}
}

func TestSeriesStore_GetHistory_InvalidLookback(t *testing.T) {
	store := NewSeriesStore()
	ctx := context.Background()

	_, err := store.GetHistory(ctx, "prop-1", "4010", domain.DocumentIncomeStatement, yearMs, 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
