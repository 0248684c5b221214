package stats

import "math"

// Smoothing constants. Fixed rather than optimized: runtime per account is
// bounded and the detectors rely on in-sample residuals, not on a tuned fit.
const (
	holtAlpha = 0.5
	holtBeta  = 0.3

	hwAlpha = 0.4
	hwBeta  = 0.1
	hwGamma = 0.3
)

// SmoothingFit is the result of an exponential-smoothing fit.
// Fitted holds one-step-ahead in-sample predictions aligned with the
// input; entries before the model warms up are NaN.
type SmoothingFit struct {
	Fitted   []float64
	Forecast float64 // one step past the input
	Model    string  // "holt" or "holt_winters"
}

// HoltFit fits Holt's linear-trend exponential smoothing.
// Requires at least 4 points. Returns (nil, false) on insufficient data or
// a numerically degenerate series.
func HoltFit(values []float64) (*SmoothingFit, bool) {
	n := len(values)
	if n < 4 || !allFinite(values) {
		return nil, false
	}

	level := values[0]
	trend := values[1] - values[0]

	fitted := make([]float64, n)
	fitted[0] = math.NaN()
	for i := 1; i < n; i++ {
		pred := level + trend
		fitted[i] = pred

		prevLevel := level
		level = holtAlpha*values[i] + (1-holtAlpha)*pred
		trend = holtBeta*(level-prevLevel) + (1-holtBeta)*trend
	}

	forecast := level + trend
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return nil, false
	}
	return &SmoothingFit{Fitted: fitted, Forecast: forecast, Model: "holt"}, true
}

// HoltWintersFit fits additive seasonal exponential smoothing.
// Initialization uses the first season only (level = first-season mean,
// seasonal = first-season deviations), so it works from period+2 points
// without requiring two full seasons. Returns (nil, false) when the series
// is too short or degenerate.
func HoltWintersFit(values []float64, period int) (*SmoothingFit, bool) {
	n := len(values)
	if period < 2 || n < period+2 || !allFinite(values) {
		return nil, false
	}

	level := Mean(values[:period])
	trend := (values[period-1] - values[0]) / float64(period-1)
	seasonal := make([]float64, period)
	for j := 0; j < period; j++ {
		seasonal[j] = values[j] - level
	}

	fitted := make([]float64, n)
	for i := 0; i < period; i++ {
		fitted[i] = math.NaN()
	}
	for i := period; i < n; i++ {
		j := i % period
		pred := level + trend + seasonal[j]
		fitted[i] = pred

		prevLevel := level
		level = hwAlpha*(values[i]-seasonal[j]) + (1-hwAlpha)*(level+trend)
		trend = hwBeta*(level-prevLevel) + (1-hwBeta)*trend
		seasonal[j] = hwGamma*(values[i]-level) + (1-hwGamma)*seasonal[j]
	}

	forecast := level + trend + seasonal[n%period]
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return nil, false
	}
	return &SmoothingFit{Fitted: fitted, Forecast: forecast, Model: "holt_winters"}, true
}
