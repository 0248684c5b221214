// Package scoring merges heterogeneous anomaly candidates for one
// (property, account, period) into a single calibrated 0-100 risk score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/idhash"
	"property-risk-lab/internal/storage"
)

// Component score scaling: z saturates its 50-point cap at 5.0, the
// deviation percentage saturates its 30-point cap at 60%.
const (
	zTermCap     = 50.0
	zTermScale   = 10.0
	pctTermCap   = 30.0
	pctTermScale = 0.5
)

// Confidence terms: detector count saturates around 0.7 at four detectors,
// consensus and self-reported confidence contribute the rest.
const (
	countTermScale   = 0.175
	countTermCap     = 0.7
	consensusWeight  = 0.15
	selfConfWeight   = 0.2
	consensusCSFloor = 50.0
)

// Scorer combines candidates into unified risk scores using the current
// weight snapshot. The snapshot is read through an atomic pointer; the
// calibration service is the sole publisher.
type Scorer struct {
	weights    atomic.Pointer[domain.DetectorWeightTable]
	candidates storage.CandidateStore
	log        zerolog.Logger
}

// NewScorer creates a scorer seeded with the given weight snapshot. A nil
// snapshot falls back to the normalized defaults.
func NewScorer(initial *domain.DetectorWeightTable, candidates storage.CandidateStore, log zerolog.Logger) *Scorer {
	if initial == nil {
		initial = domain.NewWeightTable("default", time.Now().UnixMilli(), 0, domain.DefaultBucketWeights())
	}
	s := &Scorer{
		candidates: candidates,
		log:        log.With().Str("component", "scorer").Logger(),
	}
	s.weights.Store(initial)
	return s
}

// PublishWeights atomically swaps in a new weight snapshot. Concurrent
// scoring runs see either the old table or the new one, never a mix.
func (s *Scorer) PublishWeights(t *domain.DetectorWeightTable) {
	if t == nil {
		return
	}
	s.weights.Store(t)
	s.log.Info().
		Str("version", t.Version).
		Int("feedback_count", t.FeedbackCount).
		Msg("weight snapshot published")
}

// CurrentWeights returns the snapshot scoring runs are using right now.
func (s *Scorer) CurrentWeights() *domain.DetectorWeightTable {
	return s.weights.Load()
}

// Score reduces a candidate set for one (property, account, period) into
// one RiskScore. An empty set yields (score 0, confidence 0), never an
// error. The result records the weight snapshot version for audit.
func (s *Scorer) Score(propertyID, accountCode, periodID string, maturity domain.PropertyMaturity, candidates []*domain.AnomalyCandidate) *domain.RiskScore {
	table := s.weights.Load()
	accountType := domain.AccountTypeFromCode(accountCode)

	score := &domain.RiskScore{
		ScoreID:          idhash.ComputeScoreID(propertyID, accountCode, periodID, table.Version),
		PropertyID:       propertyID,
		AccountCode:      accountCode,
		PeriodID:         periodID,
		AccountType:      accountType,
		PropertyMaturity: maturity,
		DetectorCount:    len(candidates),
		WeightVersion:    table.Version,
		ScoredAt:         time.Now().UnixMilli(),
	}
	if len(candidates) == 0 {
		return score
	}

	var weightedSum, weightSum float64
	var aboveFloor int
	var confSum float64
	components := make([]domain.ScoreComponent, 0, len(candidates))
	for _, c := range candidates {
		cs := componentScore(c)
		bucket := BucketFor(c)
		w := table.WeightFor(bucket) *
			accountMultiplier(accountType) *
			maturityMultiplier(maturity) *
			directionalMultiplier(accountType, maturity, bucket)

		weightedSum += cs * w
		weightSum += w
		if cs > consensusCSFloor {
			aboveFloor++
		}
		confSum += math.Min(1, math.Max(0, c.Confidence))

		components = append(components, domain.ScoreComponent{
			CandidateID:    c.CandidateID,
			Bucket:         bucket,
			ComponentScore: cs,
			AdjustedWeight: w,
		})
	}

	if weightSum > 0 {
		score.Score = math.Min(100, math.Max(0, weightedSum/weightSum))
	}
	score.Components = components

	n := float64(len(candidates))
	confidence := math.Min(countTermCap, countTermScale*n) +
		consensusWeight*(float64(aboveFloor)/n) +
		selfConfWeight*(confSum/n)
	score.Confidence = math.Min(1, confidence)

	return score
}

// AttachScores writes the unified score back onto each originating
// candidate row for audit. Safe to retry: the underlying update is
// idempotent and a failure leaves candidates untouched.
func (s *Scorer) AttachScores(ctx context.Context, score *domain.RiskScore) error {
	for _, comp := range score.Components {
		if err := s.candidates.AttachScore(ctx, comp.CandidateID, score.Score); err != nil {
			return fmt.Errorf("attach score to candidate %s: %w", comp.CandidateID, err)
		}
	}
	return nil
}

// componentScore converts one candidate into a 0-100 contribution:
// z-term (cap 50) + percentage term (cap 30) + severity term (cap 20),
// scaled by the candidate's own confidence.
func componentScore(c *domain.AnomalyCandidate) float64 {
	zTerm := math.Min(zTermCap, math.Abs(c.ZScore)*zTermScale)

	pctTerm := 0.0
	if c.DeviationPctValid {
		pctTerm = math.Min(pctTermCap, math.Abs(c.DeviationPct)*pctTermScale)
	}

	var sevTerm float64
	switch c.Severity {
	case domain.SeverityCritical:
		sevTerm = 20
	case domain.SeverityHigh:
		sevTerm = 15
	case domain.SeverityMedium:
		sevTerm = 10
	default:
		sevTerm = 5
	}

	conf := math.Min(1, math.Max(0, c.Confidence))
	return math.Min(100, (zTerm+pctTerm+sevTerm)*conf)
}

// accountMultiplier reflects that revenue anomalies are judged more
// consequential than balance-sheet ones.
func accountMultiplier(t domain.AccountType) float64 {
	switch t {
	case domain.AccountRevenue:
		return 1.2
	case domain.AccountLiability:
		return 1.1
	case domain.AccountAsset:
		return 0.9
	case domain.AccountEquity:
		return 0.8
	default:
		return 1.0
	}
}

// maturityMultiplier upweights everything for new properties: with thin
// history any signal counts more.
func maturityMultiplier(m domain.PropertyMaturity) float64 {
	if m == domain.MaturityNew {
		return 1.3
	}
	return 1.0
}

// directionalMultiplier applies the fixed per-bucket adjustments: revenue
// favors statistical and seasonal signals, expense favors ML-style ones,
// and new properties trust simple statistics over seasonal/forecast models
// that need long history.
func directionalMultiplier(t domain.AccountType, m domain.PropertyMaturity, bucket domain.DetectorBucket) float64 {
	mult := 1.0
	switch t {
	case domain.AccountRevenue:
		if bucket == domain.BucketStatisticalZ || bucket == domain.BucketSeasonal {
			mult *= 1.15
		}
	case domain.AccountExpense:
		if bucket == domain.BucketMLIsolation {
			mult *= 1.15
		}
	}
	if m == domain.MaturityNew {
		switch bucket {
		case domain.BucketStatisticalZ:
			mult *= 1.2
		case domain.BucketSeasonal, domain.BucketForecastResidual:
			mult *= 0.8
		}
	}
	return mult
}
