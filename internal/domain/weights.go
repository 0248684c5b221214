package domain

// DetectorBucket is the weight-table key a candidate is attributed to.
// Closed set; classification maps BaselineType (plus sub-method metadata)
// onto these keys with BucketStatisticalZScore as the fallback.
type DetectorBucket string

const (
	BucketSeasonal         DetectorBucket = "seasonal"
	BucketForecastResidual DetectorBucket = "forecast_residual"
	BucketStatisticalZ     DetectorBucket = "statistical_zscore"
	BucketMLIsolation      DetectorBucket = "ml_isolation"
	BucketRobustMAD        DetectorBucket = "robust_mad"
	BucketCrossStatement   DetectorBucket = "cross_statement"
)

// AllBuckets lists every weight bucket in a stable order.
func AllBuckets() []DetectorBucket {
	return []DetectorBucket{
		BucketSeasonal,
		BucketForecastResidual,
		BucketStatisticalZ,
		BucketMLIsolation,
		BucketRobustMAD,
		BucketCrossStatement,
	}
}

// DefaultBucketWeights are the uncalibrated base weights. Calibration
// multiplies these by (0.5 + precision) before normalizing.
func DefaultBucketWeights() map[DetectorBucket]float64 {
	return map[DetectorBucket]float64{
		BucketSeasonal:         0.20,
		BucketForecastResidual: 0.20,
		BucketStatisticalZ:     0.20,
		BucketMLIsolation:      0.15,
		BucketRobustMAD:        0.15,
		BucketCrossStatement:   0.10,
	}
}

// DetectorWeightTable is an immutable, versioned weight snapshot.
// Corresponds to weight_snapshots table in PostgreSQL. The calibration
// service builds a new table and publishes it atomically; live tables are
// never mutated.
type DetectorWeightTable struct {
	Version       string // uuid assigned at publication
	CreatedAt     int64  // Unix timestamp in milliseconds
	FeedbackCount int    // feedback records that informed this snapshot
	weights       map[DetectorBucket]float64
}

// NewWeightTable builds a snapshot from raw bucket weights, normalizing
// them to sum to 1.0. Buckets absent from the input get weight 0. An
// all-zero input falls back to the normalized defaults.
func NewWeightTable(version string, createdAt int64, feedbackCount int, raw map[DetectorBucket]float64) *DetectorWeightTable {
	total := 0.0
	for _, w := range raw {
		if w > 0 {
			total += w
		}
	}
	weights := make(map[DetectorBucket]float64, len(raw))
	if total <= 0 {
		raw = DefaultBucketWeights()
		for _, w := range raw {
			total += w
		}
	}
	for b, w := range raw {
		if w < 0 {
			w = 0
		}
		weights[b] = w / total
	}
	return &DetectorWeightTable{
		Version:       version,
		CreatedAt:     createdAt,
		FeedbackCount: feedbackCount,
		weights:       weights,
	}
}

// WeightFor returns the bucket's weight, or the normalized default when the
// snapshot has no entry for it.
func (t *DetectorWeightTable) WeightFor(bucket DetectorBucket) float64 {
	if w, ok := t.weights[bucket]; ok {
		return w
	}
	defaults := DefaultBucketWeights()
	total := 0.0
	for _, w := range defaults {
		total += w
	}
	return defaults[bucket] / total
}

// Weights returns a copy of the weight map to keep the snapshot immutable.
func (t *DetectorWeightTable) Weights() map[DetectorBucket]float64 {
	out := make(map[DetectorBucket]float64, len(t.weights))
	for b, w := range t.weights {
		out[b] = w
	}
	return out
}
