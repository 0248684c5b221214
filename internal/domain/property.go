package domain

// Property is a real-estate asset whose financials are monitored.
// Corresponds to properties table in PostgreSQL.
type Property struct {
	PropertyID        string // PRIMARY KEY
	Name              string
	AcquisitionDateMs *int64 // Unix ms; nil when unknown
	CreatedAt         int64  // record creation timestamp (ms)
}
