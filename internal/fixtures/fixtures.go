// Package fixtures populates stores with synthetic data so the demo
// pipeline runs without external infrastructure.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/storage"
)

// Item names one (property, account, document type) seeded by the fixtures,
// together with the timestamp of its latest point.
type Item struct {
	PropertyID   string
	AccountCode  string
	DocumentType domain.DocumentType
	AsOfMs       int64
}

// Load seeds two demo properties: an established one with three years of
// seasonal revenue (current month doubled) plus a quiet expense line, and a
// new property with one year of expenses ending in a spike.
func Load(ctx context.Context, series storage.SeriesStore, properties storage.PropertyStore) ([]Item, error) {
	acq := time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	props := []*domain.Property{
		{PropertyID: "prop_oakview", Name: "Oakview Apartments", AcquisitionDateMs: &acq, CreatedAt: acq},
		{PropertyID: "prop_lakeside", Name: "Lakeside Commons", CreatedAt: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
	}
	for _, p := range props {
		if err := properties.Insert(ctx, p); err != nil {
			return nil, fmt.Errorf("seed property %s: %w", p.PropertyID, err)
		}
	}

	// Seasonal monthly revenue pattern, higher in summer.
	pattern := []float64{92000, 90000, 95000, 99000, 104000, 110000, 115000, 113000, 105000, 99000, 95000, 93000}
	revenue := make([]float64, 37)
	for i := range revenue {
		revenue[i] = pattern[i%12]
	}
	revenue[36] = pattern[0] * 2 // doubled current month

	flatExpense := make([]float64, 37)
	for i := range flatExpense {
		flatExpense[i] = 41000
	}

	spikedExpense := []float64{48000, 52000, 49000, 51000, 50000, 47000, 53000, 49000, 52000, 48000, 51000, 50000, 80000}

	var items []Item
	for _, s := range []struct {
		propertyID  string
		accountCode string
		docType     domain.DocumentType
		start       time.Time
		values      []float64
	}{
		{"prop_oakview", "4010", domain.DocumentIncomeStatement, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), revenue},
		{"prop_oakview", "5030", domain.DocumentIncomeStatement, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), flatExpense},
		{"prop_lakeside", "5030", domain.DocumentIncomeStatement, time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), spikedExpense},
	} {
		points := make([]*domain.LineItemPoint, len(s.values))
		var lastMs int64
		for i, v := range s.values {
			ts := s.start.AddDate(0, i, 0)
			lastMs = ts.UnixMilli()
			points[i] = &domain.LineItemPoint{
				PropertyID:   s.propertyID,
				AccountCode:  s.accountCode,
				DocumentType: s.docType,
				PeriodID:     fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month())),
				TimestampMs:  lastMs,
				Value:        v,
			}
		}
		if err := series.InsertBulk(ctx, points); err != nil {
			return nil, fmt.Errorf("seed series %s/%s: %w", s.propertyID, s.accountCode, err)
		}
		items = append(items, Item{
			PropertyID:   s.propertyID,
			AccountCode:  s.accountCode,
			DocumentType: s.docType,
			AsOfMs:       lastMs,
		})
	}

	return items, nil
}
