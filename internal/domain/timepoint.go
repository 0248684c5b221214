package domain

import "time"

// DocumentType identifies the financial statement a line item belongs to.
type DocumentType string

const (
	DocumentIncomeStatement DocumentType = "INCOME_STATEMENT"
	DocumentBalanceSheet    DocumentType = "BALANCE_SHEET"
)

// TimePoint is one observed value of a financial line item for a period.
// Immutable; stores guarantee ascending TimestampMs ordering.
type TimePoint struct {
	PeriodID    string  // reporting period identifier, e.g. "2024-07"
	TimestampMs int64   // period timestamp, Unix milliseconds
	Value       float64 // reported numeric value
}

// Month returns the calendar month of the point in UTC.
func (p TimePoint) Month() time.Month {
	return time.UnixMilli(p.TimestampMs).UTC().Month()
}

// LineItemPoint is the storage row backing TimePoint.
// Corresponds to line_items table in ClickHouse.
type LineItemPoint struct {
	PropertyID   string
	AccountCode  string
	DocumentType DocumentType
	PeriodID     string
	TimestampMs  int64
	Value        float64
}
