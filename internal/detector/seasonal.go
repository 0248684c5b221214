package detector

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/idhash"
	"property-risk-lab/internal/stats"
)

// SeasonalDetectorID identifies candidates emitted by this detector.
const SeasonalDetectorID = "seasonal_baseline"

const (
	// minSeasonalHistory is the smallest history that justifies looking for
	// seasonality at all.
	minSeasonalHistory = 12
	seasonalPeriod     = 12
	rollingWindowYears = 3
)

// SeasonalDetector estimates the expected value for the latest period from
// seasonal structure. Three estimators run in priority order; the first one
// that fits with enough confidence wins, with the plain historical mean as
// the terminal fallback.
type SeasonalDetector struct {
	log zerolog.Logger
}

// NewSeasonalDetector creates a seasonal baseline detector.
func NewSeasonalDetector(log zerolog.Logger) *SeasonalDetector {
	return &SeasonalDetector{log: log.With().Str("detector", SeasonalDetectorID).Logger()}
}

// ID returns the detector identity.
func (d *SeasonalDetector) ID() string { return SeasonalDetectorID }

// seasonalEstimate is one estimator's output. Residuals are the estimator's
// own in-sample errors, used for the z-score denominator.
type seasonalEstimate struct {
	expected   float64
	confidence float64
	method     string
	residuals  []float64
}

// seasonalStrategy pairs an estimator with the confidence it must clear to
// be selected. Strategies are evaluated in order; the first acceptable
// result wins.
type seasonalStrategy struct {
	fit           func(history []domain.TimePoint, target domain.TimePoint) (seasonalEstimate, bool)
	minConfidence float64
}

// Detect computes the expected value for the target period and emits a
// candidate when the deviation clears the emission gate. Returns
// (nil, false) when history is too short or the deviation is unremarkable.
func (d *SeasonalDetector) Detect(req Request) (*domain.AnomalyCandidate, bool) {
	history, target, ok := req.split()
	if !ok || len(history) < minSeasonalHistory {
		return nil, false
	}

	strategies := []seasonalStrategy{
		{fit: d.decompositionEstimate, minConfidence: 0.7},
		{fit: d.rollingMonthEstimate, minConfidence: 0.6},
		{fit: d.yearOverYearEstimate, minConfidence: 0},
		{fit: d.historicalMeanEstimate, minConfidence: 0},
	}

	var est seasonalEstimate
	found := false
	for _, s := range strategies {
		e, ok := s.fit(history, target)
		if !ok {
			continue
		}
		if e.confidence > s.minConfidence {
			est = e
			found = true
			break
		}
		d.log.Debug().
			Str("method", e.method).
			Float64("confidence", e.confidence).
			Msg("estimate below confidence floor, trying next")
	}
	if !found {
		return nil, false
	}

	deviation := target.Value - est.expected
	pct, pctValid := deviationPct(deviation, est.expected)

	z := zProxy(pct, pctValid)
	if len(est.residuals) >= minResidualsForZ {
		std := stats.SampleStddev(est.residuals, stats.Mean(est.residuals))
		if std > minResidualStd {
			z = deviation / std
		}
	}

	if !shouldEmit(z, pct, pctValid) {
		return nil, false
	}

	c := &domain.AnomalyCandidate{
		CandidateID:       idhash.ComputeCandidateID(req.PropertyID, req.AccountCode, req.DocumentType, target.PeriodID, SeasonalDetectorID),
		PropertyID:        req.PropertyID,
		AccountCode:       req.AccountCode,
		DocumentType:      req.DocumentType,
		PeriodID:          target.PeriodID,
		DetectorID:        SeasonalDetectorID,
		BaselineType:      domain.BaselineSeasonal,
		ActualValue:       target.Value,
		ExpectedValue:     est.expected,
		Deviation:         deviation,
		DeviationPct:      pct,
		DeviationPctValid: pctValid,
		ZScore:            z,
		Severity:          severityFor(z, pct, pctValid),
		Confidence:        est.confidence,
		Method:            est.method,
		DetectedAt:        time.Now().UnixMilli(),
	}
	return c, true
}

// decompositionEstimate extracts additive trend + seasonal structure from
// the full history and extrapolates one step. Confidence is the
// decomposition's fit quality.
func (d *SeasonalDetector) decompositionEstimate(history []domain.TimePoint, _ domain.TimePoint) (seasonalEstimate, bool) {
	values := timeValues(history)
	dec, ok := stats.Decompose(values, seasonalPeriod)
	if !ok {
		d.log.Debug().Int("points", len(values)).Msg("decomposition did not fit")
		return seasonalEstimate{}, false
	}
	expected, ok := dec.ForecastNext()
	if !ok {
		return seasonalEstimate{}, false
	}
	return seasonalEstimate{
		expected:   expected,
		confidence: dec.Quality,
		method:     "decomposition",
		residuals:  dec.Residuals(values),
	}, true
}

// rollingMonthEstimate is the mean of same-calendar-month values within a
// trailing window. Confidence grows with the number of matching years,
// capped above the year-over-year estimator because the window is bounded.
func (d *SeasonalDetector) rollingMonthEstimate(history []domain.TimePoint, target domain.TimePoint) (seasonalEstimate, bool) {
	windowStart := target.TimestampMs - int64(rollingWindowYears)*yearMs
	var matches []float64
	for _, p := range history {
		if p.TimestampMs >= windowStart && p.Month() == target.Month() {
			matches = append(matches, p.Value)
		}
	}
	if len(matches) == 0 {
		return seasonalEstimate{}, false
	}
	mean := stats.Mean(matches)
	return seasonalEstimate{
		expected:   mean,
		confidence: math.Min(0.9, 0.3+0.2*float64(len(matches))),
		method:     "rolling_3y_month_mean",
		residuals:  centered(matches, mean),
	}, true
}

// yearOverYearEstimate is the mean of all prior values in the target's
// calendar month.
func (d *SeasonalDetector) yearOverYearEstimate(history []domain.TimePoint, target domain.TimePoint) (seasonalEstimate, bool) {
	var matches []float64
	for _, p := range history {
		if p.Month() == target.Month() {
			matches = append(matches, p.Value)
		}
	}
	if len(matches) == 0 {
		return seasonalEstimate{}, false
	}
	mean := stats.Mean(matches)
	return seasonalEstimate{
		expected:   mean,
		confidence: math.Min(0.8, 0.2+0.15*float64(len(matches))),
		method:     "year_over_year",
		residuals:  centered(matches, mean),
	}, true
}

// historicalMeanEstimate is the terminal fallback: the plain mean of the
// whole history at low fixed confidence.
func (d *SeasonalDetector) historicalMeanEstimate(history []domain.TimePoint, _ domain.TimePoint) (seasonalEstimate, bool) {
	values := timeValues(history)
	mean := stats.Mean(values)
	return seasonalEstimate{
		expected:   mean,
		confidence: 0.3,
		method:     "historical_mean",
		residuals:  centered(values, mean),
	}, true
}

// centered returns values minus their mean.
func centered(values []float64, mean float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - mean
	}
	return out
}
