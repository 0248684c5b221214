// Package calibration recomputes detector weights from accumulated human
// feedback and publishes them as immutable versioned snapshots.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/observability"
	"property-risk-lab/internal/scoring"
	"property-risk-lab/internal/storage"
)

// DefaultWindowDays is the feedback lookback window.
const DefaultWindowDays = 90

const dayMs = int64(24) * 60 * 60 * 1000

// WeightPublisher is the scorer-side surface the service updates.
type WeightPublisher interface {
	PublishWeights(t *domain.DetectorWeightTable)
	CurrentWeights() *domain.DetectorWeightTable
}

// Service joins feedback to candidate buckets, recomputes per-bucket
// weights and publishes a new snapshot. Runs are serialized: two
// Recalibrate calls never interleave.
type Service struct {
	mu sync.Mutex

	feedback   storage.FeedbackStore
	candidates storage.CandidateStore
	snapshots  storage.WeightSnapshotStore
	publisher  WeightPublisher

	windowDays int
	now        func() int64
	log        zerolog.Logger
}

// NewService creates a calibration service. windowDays <= 0 selects the
// default 90-day window.
func NewService(
	feedback storage.FeedbackStore,
	candidates storage.CandidateStore,
	snapshots storage.WeightSnapshotStore,
	publisher WeightPublisher,
	windowDays int,
	log zerolog.Logger,
) *Service {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{
		feedback:   feedback,
		candidates: candidates,
		snapshots:  snapshots,
		publisher:  publisher,
		windowDays: windowDays,
		now:        func() int64 { return time.Now().UnixMilli() },
		log:        log.With().Str("component", "calibration").Logger(),
	}
}

// Recalibrate recomputes bucket weights from feedback inside the lookback
// window. It returns the version of the weight table in effect afterwards
// and the number of feedback records that informed it. An empty window
// leaves the current snapshot untouched and republishes nothing.
func (s *Service) Recalibrate(ctx context.Context) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now()
	sinceMs := nowMs - int64(s.windowDays)*dayMs

	entries, err := s.feedback.GetSince(ctx, sinceMs)
	if err != nil {
		observability.RecordCalibrationRun("error", 0)
		return "", 0, fmt.Errorf("load feedback window: %w", err)
	}
	if len(entries) == 0 {
		current := s.publisher.CurrentWeights()
		observability.RecordCalibrationRun("empty_window", 0)
		s.log.Info().Str("version", current.Version).Msg("no feedback in window, keeping current weights")
		return current.Version, 0, nil
	}

	// Join each feedback record to its candidate's bucket. Feedback whose
	// candidate is gone is skipped, not fatal.
	type tally struct{ confirmed, total int }
	tallies := make(map[domain.DetectorBucket]*tally)
	joined := 0
	for _, f := range entries {
		c, err := s.candidates.GetByID(ctx, f.CandidateID)
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn().Str("feedback_id", f.FeedbackID).Str("candidate_id", f.CandidateID).
				Msg("feedback references missing candidate, skipping")
			continue
		}
		if err != nil {
			observability.RecordCalibrationRun("error", 0)
			return "", 0, fmt.Errorf("join feedback %s: %w", f.FeedbackID, err)
		}

		bucket := scoring.BucketFor(c)
		t := tallies[bucket]
		if t == nil {
			t = &tally{}
			tallies[bucket] = t
		}
		t.total++
		if f.Label == domain.FeedbackConfirmed {
			t.confirmed++
		}
		joined++
	}
	if joined == 0 {
		current := s.publisher.CurrentWeights()
		observability.RecordCalibrationRun("empty_window", 0)
		s.log.Info().Str("version", current.Version).Msg("no joinable feedback in window, keeping current weights")
		return current.Version, 0, nil
	}

	// New weight = base default × (0.5 + precision). Buckets without
	// feedback keep precision 0.5, i.e. their base default.
	defaults := domain.DefaultBucketWeights()
	raw := make(map[domain.DetectorBucket]float64, len(defaults))
	for _, bucket := range domain.AllBuckets() {
		precision := 0.5
		if t := tallies[bucket]; t != nil && t.total > 0 {
			precision = float64(t.confirmed) / float64(t.total)
		}
		raw[bucket] = defaults[bucket] * (0.5 + precision)
	}

	table := domain.NewWeightTable(uuid.NewString(), nowMs, joined, raw)
	if err := s.snapshots.Insert(ctx, table); err != nil {
		observability.RecordCalibrationRun("error", 0)
		return "", 0, fmt.Errorf("persist weight snapshot %s: %w", table.Version, err)
	}
	s.publisher.PublishWeights(table)
	observability.RecordCalibrationRun("success", joined)

	s.log.Info().
		Str("version", table.Version).
		Int("feedback_count", joined).
		Int("window_days", s.windowDays).
		Msg("weights recalibrated")
	return table.Version, joined, nil
}
