// Package engine runs the detect → score → persist batch over independent
// (property, account, document type) work items with a fixed worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"property-risk-lab/internal/detector"
	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/observability"
	"property-risk-lab/internal/scoring"
	"property-risk-lab/internal/storage"
)

const (
	defaultWorkers       = 4
	defaultItemTimeout   = 30 * time.Second
	defaultLookbackYears = 3
)

// WorkItem is one independent unit of the batch: detect and score a single
// line item as of the given timestamp.
type WorkItem struct {
	PropertyID   string
	AccountCode  string
	DocumentType domain.DocumentType
	AsOfMs       int64 // right edge of the history window, inclusive
}

// Options for creating an Engine.
type Options struct {
	Series     storage.SeriesStore
	Candidates storage.CandidateStore
	Scores     storage.RiskScoreStore
	Properties storage.PropertyStore

	Detectors []detector.Detector
	Scorer    *scoring.Scorer

	Workers       int
	ItemTimeout   time.Duration
	LookbackYears int
	Logger        zerolog.Logger
}

// Engine coordinates detector runs and scoring across a batch.
type Engine struct {
	series     storage.SeriesStore
	candidates storage.CandidateStore
	scores     storage.RiskScoreStore
	properties storage.PropertyStore

	detectors []detector.Detector
	scorer    *scoring.Scorer

	workers       int
	itemTimeout   time.Duration
	lookbackYears int
	log           zerolog.Logger
}

// New creates a new Engine.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = defaultItemTimeout
	}
	if opts.LookbackYears <= 0 {
		opts.LookbackYears = defaultLookbackYears
	}
	return &Engine{
		series:        opts.Series,
		candidates:    opts.Candidates,
		scores:        opts.Scores,
		properties:    opts.Properties,
		detectors:     opts.Detectors,
		scorer:        opts.Scorer,
		workers:       opts.Workers,
		itemTimeout:   opts.ItemTimeout,
		lookbackYears: opts.LookbackYears,
		log:           opts.Logger.With().Str("component", "engine").Logger(),
	}
}

// RunResult contains the outcome of one batch run. One item's failure is
// recorded here and never aborts the rest of the batch.
type RunResult struct {
	mu sync.Mutex

	ItemsProcessed    int
	SkippedNoData     int
	CandidatesEmitted int
	ScoresWritten     int
	Errors            []string
}

func (r *RunResult) addError(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run processes every work item through the worker pool and returns the
// aggregated result. Only context cancellation stops the batch early.
func (e *Engine) Run(ctx context.Context, items []WorkItem) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{}

	jobs := make(chan WorkItem)
	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				e.processItem(ctx, item, result)
			}
		}()
	}

	var cancelled error
dispatch:
	for _, item := range items {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()

	observability.DefaultMetrics.BatchDuration.Observe(time.Since(started).Seconds())
	e.log.Info().
		Int("items", result.ItemsProcessed).
		Int("skipped_no_data", result.SkippedNoData).
		Int("candidates", result.CandidatesEmitted).
		Int("scores", result.ScoresWritten).
		Int("errors", len(result.Errors)).
		Dur("elapsed", time.Since(started)).
		Msg("batch run finished")
	return result, cancelled
}

// processItem runs every detector on one item's history, scores the full
// candidate set for the target period and persists the outcome.
func (e *Engine) processItem(ctx context.Context, item WorkItem, result *RunResult) {
	ctx, cancel := context.WithTimeout(ctx, e.itemTimeout)
	defer cancel()

	observability.DefaultMetrics.ItemsProcessed.Inc()
	result.mu.Lock()
	result.ItemsProcessed++
	result.mu.Unlock()

	series, err := e.series.GetHistory(ctx, item.PropertyID, item.AccountCode, item.DocumentType, item.AsOfMs, e.lookbackYears)
	if err != nil {
		observability.DefaultMetrics.ItemErrors.Inc()
		result.addError("get history %s/%s: %v", item.PropertyID, item.AccountCode, err)
		return
	}
	if len(series) < 2 {
		// Nothing to compare against; distinguishable from a computed
		// zero score.
		result.mu.Lock()
		result.SkippedNoData++
		result.mu.Unlock()
		return
	}
	target := series[len(series)-1]

	maturity := e.maturity(ctx, item.PropertyID, series[0].TimestampMs, target.TimestampMs)

	req := detector.Request{
		PropertyID:   item.PropertyID,
		AccountCode:  item.AccountCode,
		DocumentType: item.DocumentType,
		Series:       series,
	}
	for _, det := range e.detectors {
		observability.RecordDetectorRun(det.ID())
		c, ok := det.Detect(req)
		if !ok {
			continue
		}
		err := e.candidates.Insert(ctx, c)
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Already detected in an earlier run; the scoring pass below
			// picks it up from the store.
			continue
		}
		if err != nil {
			observability.DefaultMetrics.ItemErrors.Inc()
			result.addError("persist candidate %s: %v", c.CandidateID, err)
			continue
		}
		observability.RecordCandidateEmitted(det.ID(), string(c.Severity))
		result.mu.Lock()
		result.CandidatesEmitted++
		result.mu.Unlock()
	}

	// Score the full pool for this period, including candidates raised by
	// external detectors or earlier runs.
	pool, err := e.candidates.GetByAccountPeriod(ctx, item.PropertyID, item.AccountCode, target.PeriodID)
	if err != nil {
		observability.DefaultMetrics.ItemErrors.Inc()
		result.addError("load candidate pool %s/%s/%s: %v", item.PropertyID, item.AccountCode, target.PeriodID, err)
		return
	}

	scoreStart := time.Now()
	score := e.scorer.Score(item.PropertyID, item.AccountCode, target.PeriodID, maturity, pool)
	observability.RecordScore(time.Since(scoreStart).Seconds())

	err = e.scores.Insert(ctx, score)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Same candidate pool and weight snapshot as an earlier run.
		return
	}
	if err != nil {
		observability.DefaultMetrics.ItemErrors.Inc()
		result.addError("persist score %s: %v", score.ScoreID, err)
		return
	}
	result.mu.Lock()
	result.ScoresWritten++
	result.mu.Unlock()

	if err := e.scorer.AttachScores(ctx, score); err != nil {
		result.addError("attach scores %s: %v", score.ScoreID, err)
	}
}

// maturity prefers the property's acquisition date as the left edge of its
// history; without one (or without the property row) the observed series
// span decides.
func (e *Engine) maturity(ctx context.Context, propertyID string, firstSeenMs, asOfMs int64) domain.PropertyMaturity {
	p, err := e.properties.GetByID(ctx, propertyID)
	if err == nil && p.AcquisitionDateMs != nil {
		return domain.MaturityFromSpan(*p.AcquisitionDateMs, asOfMs)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		e.log.Warn().Err(err).Str("property_id", propertyID).Msg("property lookup failed, using series span")
	}
	return domain.MaturityFromSpan(firstSeenMs, asOfMs)
}
