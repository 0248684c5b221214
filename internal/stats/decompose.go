package stats

import "math"

// Decomposition is an additive trend + seasonal split of a regularly
// spaced series. Trend entries outside the centered moving-average window
// are NaN. Seasonal holds one centered component per season index.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Period   int
	// Quality is 1 - residual variance / series variance, clamped to [0,1].
	// A flat or perfectly seasonal series scores near 1.
	Quality float64
}

// Decompose splits values into additive trend and seasonal components
// using a centered moving average for the trend and season-indexed means
// for the seasonal part. Values are assumed regularly spaced; season index
// is position mod period.
//
// Requires len(values) >= period+2 so at least one full centered window
// exists. Returns (nil, false) on insufficient data or degenerate input.
func Decompose(values []float64, period int) (*Decomposition, bool) {
	n := len(values)
	if period < 2 || n < period+2 || !allFinite(values) {
		return nil, false
	}

	// Centered moving average. For even periods the window spans period+1
	// points with half weight on both ends (classical decomposition).
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}
	half := period / 2
	trendCount := 0
	for i := half; i < n-half; i++ {
		var sum float64
		if period%2 == 0 {
			sum = 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j <= i+half-1; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
		trendCount++
	}
	if trendCount == 0 {
		return nil, false
	}

	// Season-indexed means of the detrended series.
	seasonalSum := make([]float64, period)
	seasonalN := make([]int, period)
	for i, v := range values {
		if math.IsNaN(trend[i]) {
			continue
		}
		idx := i % period
		seasonalSum[idx] += v - trend[i]
		seasonalN[idx]++
	}
	seasonal := make([]float64, period)
	for idx := range seasonal {
		if seasonalN[idx] > 0 {
			seasonal[idx] = seasonalSum[idx] / float64(seasonalN[idx])
		}
	}

	// Center seasonal components to sum to zero so trend carries the level.
	center := Mean(seasonal)
	for idx := range seasonal {
		seasonal[idx] -= center
	}

	// Fit quality from in-sample residuals over the valid trend range.
	var residuals []float64
	for i, v := range values {
		if math.IsNaN(trend[i]) {
			continue
		}
		residuals = append(residuals, v-trend[i]-seasonal[i%period])
	}
	seriesVar := Variance(values)
	quality := 0.0
	if seriesVar > 0 {
		quality = Clamp(1-Variance(residuals)/seriesVar, 0, 1)
	} else if len(residuals) > 0 {
		// Constant series decomposes exactly.
		quality = 1.0
	}

	return &Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Period:   period,
		Quality:  quality,
	}, true
}

// ForecastNext extrapolates trend one step past the input and adds the
// seasonal component for the next season index. n is the input length.
func (d *Decomposition) ForecastNext() (float64, bool) {
	n := len(d.Trend)

	// Last two valid trend points give level and slope.
	lastIdx := -1
	prevIdx := -1
	for i := n - 1; i >= 0; i-- {
		if math.IsNaN(d.Trend[i]) {
			continue
		}
		if lastIdx == -1 {
			lastIdx = i
		} else {
			prevIdx = i
			break
		}
	}
	if lastIdx == -1 {
		return 0, false
	}

	slope := 0.0
	if prevIdx != -1 {
		slope = (d.Trend[lastIdx] - d.Trend[prevIdx]) / float64(lastIdx-prevIdx)
	}
	trendNext := d.Trend[lastIdx] + slope*float64(n-lastIdx)

	forecast := trendNext + d.Seasonal[n%d.Period]
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return 0, false
	}
	return forecast, true
}

// Residuals returns in-sample residuals (actual - trend - seasonal) over
// the valid trend range.
func (d *Decomposition) Residuals(values []float64) []float64 {
	var residuals []float64
	for i, v := range values {
		if i >= len(d.Trend) || math.IsNaN(d.Trend[i]) {
			continue
		}
		residuals = append(residuals, v-d.Trend[i]-d.Seasonal[i%d.Period])
	}
	return residuals
}
