// Package detector implements the baseline anomaly detectors. Each detector
// consumes a time-ordered series for one (property, account, document type),
// treats the last point as the period under test, and emits at most one
// AnomalyCandidate. Detectors degrade instead of failing: estimator and
// model-fit failures are skipped or logged, never propagated.
package detector

import (
	"math"

	"property-risk-lab/internal/domain"
)

// Emission and severity thresholds, checked against both |z| and
// |deviation percentage|.
const (
	emitZThreshold   = 2.5
	emitPctThreshold = 20.0

	criticalZ   = 3.0
	criticalPct = 50.0
	highZ       = 2.5
	highPct     = 30.0
	mediumZ     = 2.0
	mediumPct   = 20.0

	// minResidualsForZ is the smallest in-sample residual count that
	// supports a real z-score; below it the percentage proxy applies.
	minResidualsForZ = 3

	// zProxyDivisor maps |deviation percentage| to an approximate z-score
	// when too few residuals exist. An approximation, not a calibrated
	// statistic.
	zProxyDivisor = 20.0

	// minResidualStd treats float dust from a near-perfect fit as zero
	// spread; dividing by it would turn rounding noise into huge z-scores.
	minResidualStd = 1e-8

	yearMs = int64(365*24) * 60 * 60 * 1000
)

// Request is one detection unit: the full observation window for one
// (property, account, document type) in ascending timestamp order. The last
// point is the period under test; everything before it is history.
type Request struct {
	PropertyID   string
	AccountCode  string
	DocumentType domain.DocumentType
	Series       []domain.TimePoint
}

// split separates history from the target point. ok is false when the
// series has no target or no history at all.
func (r Request) split() (history []domain.TimePoint, target domain.TimePoint, ok bool) {
	n := len(r.Series)
	if n < 2 {
		return nil, domain.TimePoint{}, false
	}
	return r.Series[:n-1], r.Series[n-1], true
}

// Detector produces at most one candidate per request.
type Detector interface {
	ID() string
	Detect(req Request) (*domain.AnomalyCandidate, bool)
}

// deviationPct computes deviation / expected × 100. The bool is false when
// expected is zero; the value then holds the 0 sentinel.
func deviationPct(deviation, expected float64) (float64, bool) {
	if expected == 0 {
		return 0, false
	}
	return deviation / expected * 100, true
}

// severityFor grades a deviation from |z| and |pct|, whichever is more
// extreme. pctValid guards the percentage side of each band.
func severityFor(z, pct float64, pctValid bool) domain.Severity {
	absZ := math.Abs(z)
	absPct := math.Abs(pct)
	switch {
	case absZ >= criticalZ || (pctValid && absPct >= criticalPct):
		return domain.SeverityCritical
	case absZ >= highZ || (pctValid && absPct >= highPct):
		return domain.SeverityHigh
	case absZ >= mediumZ || (pctValid && absPct >= mediumPct):
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// shouldEmit applies the emission gate. Near-normal values produce nothing
// rather than low-severity noise.
func shouldEmit(z, pct float64, pctValid bool) bool {
	return math.Abs(z) >= emitZThreshold || (pctValid && math.Abs(pct) >= emitPctThreshold)
}

// zProxy approximates a z-score from the deviation percentage.
func zProxy(pct float64, pctValid bool) float64 {
	if !pctValid {
		return 0
	}
	return math.Abs(pct) / zProxyDivisor
}

// timeValues extracts the raw values of a point slice.
func timeValues(points []domain.TimePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
