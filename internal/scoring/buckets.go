package scoring

import "property-risk-lab/internal/domain"

// BucketFor maps a candidate onto its weight-table bucket. The mapping is a
// closed table over the baseline-type enum; anything unrecognized lands in
// the statistical bucket rather than failing the scoring run.
func BucketFor(c *domain.AnomalyCandidate) domain.DetectorBucket {
	switch c.BaselineType {
	case domain.BaselineSeasonal:
		return domain.BucketSeasonal
	case domain.BaselineForecast:
		return domain.BucketForecastResidual
	case domain.BaselineStatistical:
		return domain.BucketStatisticalZ
	case domain.BaselineML:
		return domain.BucketMLIsolation
	case domain.BaselineRobustStatistical:
		return domain.BucketRobustMAD
	case domain.BaselineCrossStatement:
		return domain.BucketCrossStatement
	default:
		return domain.BucketStatisticalZ
	}
}
