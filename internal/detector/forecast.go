package detector

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/idhash"
	"property-risk-lab/internal/stats"
)

// ForecastDetectorID identifies candidates emitted by this detector.
const ForecastDetectorID = "forecast_residual"

const (
	// minForecastHistory short-circuits the detector entirely.
	minForecastHistory = 6
	// arMinHistory is the length from which the autoregressive family is
	// preferred over exponential smoothing.
	arMinHistory = 12
)

// arOrders is the bounded attempt list for the autoregressive-integrated
// family. Fixed, not searched, so runtime per account stays bounded.
var arOrders = []struct{ p, d int }{
	{2, 1},
	{1, 1},
	{1, 0},
}

// ForecastDetector forecasts the target period from history and flags the
// anomaly on the residual (actual minus forecast). Model fit failures
// degrade to simpler models and finally to no candidate.
type ForecastDetector struct {
	log zerolog.Logger
}

// NewForecastDetector creates a forecast-residual baseline detector.
func NewForecastDetector(log zerolog.Logger) *ForecastDetector {
	return &ForecastDetector{log: log.With().Str("detector", ForecastDetectorID).Logger()}
}

// ID returns the detector identity.
func (d *ForecastDetector) ID() string { return ForecastDetectorID }

// forecastFit is the winning model's output.
type forecastFit struct {
	forecast   float64
	fitted     []float64 // in-sample one-step predictions, NaN during warmup
	confidence float64
	model      string
}

// Detect fits a one-step-ahead model on history and emits a candidate when
// the residual clears the emission gate. Returns (nil, false) on short
// history, total fit failure or an unremarkable residual.
func (d *ForecastDetector) Detect(req Request) (*domain.AnomalyCandidate, bool) {
	history, target, ok := req.split()
	if !ok || len(history) < minForecastHistory {
		return nil, false
	}

	values := timeValues(history)
	fit, ok := d.fitModel(values)
	if !ok {
		d.log.Debug().
			Str("property_id", req.PropertyID).
			Str("account_code", req.AccountCode).
			Int("points", len(values)).
			Msg("no forecast model fit, skipping")
		return nil, false
	}

	residual := target.Value - fit.forecast
	pct, pctValid := deviationPct(residual, fit.forecast)

	// z from in-sample fitted residuals; proxy when too few.
	var residuals []float64
	for i, f := range fit.fitted {
		if math.IsNaN(f) {
			continue
		}
		residuals = append(residuals, values[i]-f)
	}
	z := zProxy(pct, pctValid)
	if len(residuals) >= minResidualsForZ {
		mean := stats.Mean(residuals)
		std := stats.SampleStddev(residuals, mean)
		if std > minResidualStd {
			z = (residual - mean) / std
		}
	}

	if !shouldEmit(z, pct, pctValid) {
		return nil, false
	}

	c := &domain.AnomalyCandidate{
		CandidateID:       idhash.ComputeCandidateID(req.PropertyID, req.AccountCode, req.DocumentType, target.PeriodID, ForecastDetectorID),
		PropertyID:        req.PropertyID,
		AccountCode:       req.AccountCode,
		DocumentType:      req.DocumentType,
		PeriodID:          target.PeriodID,
		DetectorID:        ForecastDetectorID,
		BaselineType:      domain.BaselineForecast,
		ActualValue:       target.Value,
		ExpectedValue:     fit.forecast,
		Deviation:         residual,
		DeviationPct:      pct,
		DeviationPctValid: pctValid,
		ZScore:            z,
		Severity:          severityFor(z, pct, pctValid),
		Confidence:        fit.confidence,
		Method:            fit.model,
		DetectedAt:        time.Now().UnixMilli(),
	}
	return c, true
}

// fitModel tries the autoregressive family first on long histories, then
// falls through to exponential smoothing. The first fit wins.
func (d *ForecastDetector) fitModel(values []float64) (forecastFit, bool) {
	if len(values) >= arMinHistory {
		for _, o := range arOrders {
			ar, ok := stats.FitARI(values, o.p, o.d)
			if !ok {
				d.log.Debug().Int("p", o.p).Int("d", o.d).Msg("ar order did not fit")
				continue
			}
			conf := (confidenceFromResiduals(ar.Fitted, values) + confidenceFromAIC(ar.AIC, len(values))) / 2
			return forecastFit{
				forecast:   ar.Forecast,
				fitted:     ar.Fitted,
				confidence: conf,
				model:      ar.Order,
			}, true
		}
	}

	if len(values) >= arMinHistory {
		if hw, ok := stats.HoltWintersFit(values, seasonalPeriod); ok {
			return forecastFit{
				forecast:   hw.Forecast,
				fitted:     hw.Fitted,
				confidence: confidenceFromResiduals(hw.Fitted, values),
				model:      hw.Model,
			}, true
		}
		d.log.Debug().Msg("holt-winters did not fit")
	}

	h, ok := stats.HoltFit(values)
	if !ok {
		d.log.Debug().Msg("holt did not fit")
		return forecastFit{}, false
	}
	return forecastFit{
		forecast:   h.Forecast,
		fitted:     h.Fitted,
		confidence: confidenceFromResiduals(h.Fitted, values),
		model:      h.Model,
	}, true
}

// confidenceFromResiduals maps in-sample mean squared error relative to the
// series variance into [0.3, 0.95]. A fit no better than the series mean
// bottoms out at 0.3.
func confidenceFromResiduals(fitted, values []float64) float64 {
	var sumSq float64
	var n int
	for i, f := range fitted {
		if math.IsNaN(f) {
			continue
		}
		diff := values[i] - f
		sumSq += diff * diff
		n++
	}
	if n == 0 {
		return 0.3
	}
	mse := sumSq / float64(n)

	seriesVar := stats.Variance(values)
	if seriesVar <= 0 {
		if mse <= 1e-12 {
			return 0.95
		}
		return 0.3
	}
	return stats.Clamp(0.95-0.65*(mse/seriesVar), 0.3, 0.95)
}

// confidenceFromAIC maps the information criterion normalized by series
// length into [0.3, 0.95]. Lower AIC means a tighter fit.
func confidenceFromAIC(aic float64, n int) float64 {
	if n <= 0 {
		return 0.3
	}
	return stats.Clamp(0.95-0.05*(aic/float64(n)), 0.3, 0.95)
}
