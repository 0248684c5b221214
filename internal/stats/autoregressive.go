package stats

import (
	"fmt"
	"math"
)

// minPivot guards the linear solver against ill-conditioned systems.
const minPivot = 1e-10

// ARFit is the result of an autoregressive-integrated fit.
// Fitted holds in-sample one-step predictions aligned with the original
// input; entries before the model has enough lags are NaN.
type ARFit struct {
	Fitted   []float64
	Forecast float64 // one step past the input
	AIC      float64 // Akaike information criterion of the regression
	Order    string  // e.g. "ari(1,1)"
}

// FitARI fits an AR(p) model with intercept on the d-times differenced
// series via conditional least squares and maps predictions back to the
// original scale. Supported d is 0 or 1.
//
// Returns (nil, false) on insufficient data, an ill-conditioned normal
// system, or non-finite results — the caller is expected to fall back to
// the next order in its bounded attempt list.
func FitARI(values []float64, p, d int) (*ARFit, bool) {
	n := len(values)
	if p < 1 || d < 0 || d > 1 || !allFinite(values) {
		return nil, false
	}

	// Difference the series d times.
	work := values
	if d == 1 {
		if n < 2 {
			return nil, false
		}
		work = make([]float64, n-1)
		for i := 1; i < n; i++ {
			work[i-1] = values[i] - values[i-1]
		}
	}

	m := len(work) - p // regression observations
	if m < p+3 {
		return nil, false
	}

	// Normal equations for [intercept, phi_1 .. phi_p].
	k := p + 1
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	row := make([]float64, k)
	for t := p; t < len(work); t++ {
		row[0] = 1
		for j := 1; j <= p; j++ {
			row[j] = work[t-j]
		}
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * work[t]
		}
	}

	coef, ok := solveLinearSystem(xtx, xty)
	if !ok {
		return nil, false
	}

	predictDiff := func(lags []float64) float64 {
		pred := coef[0]
		for j := 1; j <= p; j++ {
			pred += coef[j] * lags[j-1]
		}
		return pred
	}

	// In-sample fitted values on the original scale.
	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = math.NaN()
	}
	sse := 0.0
	lags := make([]float64, p)
	for t := p; t < len(work); t++ {
		for j := 1; j <= p; j++ {
			lags[j-1] = work[t-j]
		}
		pred := predictDiff(lags)
		resid := work[t] - pred
		sse += resid * resid

		origIdx := t + d
		if d == 1 {
			fitted[origIdx] = values[origIdx-1] + pred
		} else {
			fitted[origIdx] = pred
		}
	}

	// One-step forecast.
	for j := 1; j <= p; j++ {
		lags[j-1] = work[len(work)-j]
	}
	forecastDiff := predictDiff(lags)
	forecast := forecastDiff
	if d == 1 {
		forecast = values[n-1] + forecastDiff
	}
	if math.IsNaN(forecast) || math.IsInf(forecast, 0) {
		return nil, false
	}

	// AIC on the conditional likelihood; guard log of a perfect fit.
	meanSq := sse / float64(m)
	if meanSq < 1e-12 {
		meanSq = 1e-12
	}
	aic := float64(m)*math.Log(meanSq) + 2*float64(k)

	return &ARFit{
		Fitted:   fitted,
		Forecast: forecast,
		AIC:      aic,
		Order:    fmt.Sprintf("ari(%d,%d)", p, d),
	}, true
}

// solveLinearSystem solves a small dense system via Gaussian elimination
// with partial pivoting. Returns (nil, false) when a pivot falls below the
// conditioning threshold.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(a)
	// Work on copies; callers may reuse their matrices.
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < minPivot {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return x, true
}
