// Package main runs the batch anomaly pipeline: detect → score → persist
// over every seeded work item.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"property-risk-lab/internal/config"
	"property-risk-lab/internal/detector"
	"property-risk-lab/internal/domain"
	"property-risk-lab/internal/engine"
	"property-risk-lab/internal/fixtures"
	"property-risk-lab/internal/logging"
	"property-risk-lab/internal/observability"
	"property-risk-lab/internal/scoring"
	"property-risk-lab/internal/storage"
	chstore "property-risk-lab/internal/storage/clickhouse"
	"property-risk-lab/internal/storage/memory"
	"property-risk-lab/internal/storage/migrations"
	"property-risk-lab/internal/storage/postgres"
)

type stores struct {
	series     storage.SeriesStore
	candidates storage.CandidateStore
	scores     storage.RiskScoreStore
	snapshots  storage.WeightSnapshotStore
	properties storage.PropertyStore

	close func()
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (empty uses defaults)")
	useFixtures := flag.Bool("fixtures", false, "Run against in-memory stores seeded with demo data")
	metricsAddr := flag.String("metrics-addr", "", "Override metrics listen address")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, log)
	}

	st, items, err := buildStores(ctx, cfg, *useFixtures, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		os.Exit(1)
	}
	defer st.close()

	scorer, err := seedScorer(ctx, st, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scorer error: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(engine.Options{
		Series:     st.series,
		Candidates: st.candidates,
		Scores:     st.scores,
		Properties: st.properties,
		Detectors: []detector.Detector{
			detector.NewSeasonalDetector(log),
			detector.NewForecastDetector(log),
		},
		Scorer:        scorer,
		Workers:       cfg.Engine.Workers,
		ItemTimeout:   cfg.Engine.ItemTimeout,
		LookbackYears: cfg.Engine.LookbackYears,
		Logger:        log,
	})

	fmt.Println("=== Anomaly Pipeline ===")
	result, err := eng.Run(ctx, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pipeline completed:\n")
	fmt.Printf("  Items processed:    %d\n", result.ItemsProcessed)
	fmt.Printf("  Skipped (no data):  %d\n", result.SkippedNoData)
	fmt.Printf("  Candidates emitted: %d\n", result.CandidatesEmitted)
	fmt.Printf("  Scores written:     %d\n", result.ScoresWritten)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadWithEnv(path)
}

// buildStores wires either the in-memory fixture setup or the real
// PostgreSQL + ClickHouse stack. Fixture mode returns the seeded work
// items; configured mode reads them from positional arguments.
func buildStores(ctx context.Context, cfg *config.Config, useFixtures bool, log zerolog.Logger) (*stores, []engine.WorkItem, error) {
	if useFixtures {
		st := &stores{
			series:     memory.NewSeriesStore(),
			candidates: memory.NewCandidateStore(),
			scores:     memory.NewRiskScoreStore(),
			snapshots:  memory.NewWeightSnapshotStore(),
			properties: memory.NewPropertyStore(),
			close:      func() {},
		}
		seeded, err := fixtures.Load(ctx, st.series, st.properties)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		items := make([]engine.WorkItem, len(seeded))
		for i, s := range seeded {
			items[i] = engine.WorkItem{
				PropertyID:   s.PropertyID,
				AccountCode:  s.AccountCode,
				DocumentType: s.DocumentType,
				AsOfMs:       s.AsOfMs,
			}
		}
		return st, items, nil
	}

	if cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "" {
		return nil, nil, fmt.Errorf("postgres and clickhouse DSNs are required without -fixtures")
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN, cfg.ClickHouse.Database)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		series:     chstore.NewSeriesStore(conn),
		candidates: postgres.NewCandidateStore(pool),
		scores:     postgres.NewRiskScoreStore(pool),
		snapshots:  postgres.NewWeightSnapshotStore(pool),
		properties: postgres.NewPropertyStore(pool),
		close: func() {
			pool.Close()
			if err := conn.Close(); err != nil {
				log.Warn().Err(err).Msg("close clickhouse connection")
			}
		},
	}

	items, err := workItemsFromFlags(flag.Args())
	if err != nil {
		st.close()
		return nil, nil, err
	}
	return st, items, nil
}

// workItemsFromFlags parses positional arguments of the form
// property:account:doc_type:as_of_ms into work items.
func workItemsFromFlags(args []string) ([]engine.WorkItem, error) {
	items := make([]engine.WorkItem, 0, len(args))
	for _, arg := range args {
		item, err := parseWorkItem(arg)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no work items given; pass property:account:doc_type:as_of_ms arguments or use -fixtures")
	}
	return items, nil
}

// seedScorer loads the latest published weight snapshot; a fresh install
// starts from the default table.
func seedScorer(ctx context.Context, st *stores, log zerolog.Logger) (*scoring.Scorer, error) {
	table, err := st.snapshots.GetLatest(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load weight snapshot: %w", err)
		}
		table = nil
	}
	return scoring.NewScorer(table, st.candidates, log), nil
}

func startMetricsServer(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// parseWorkItem parses one property:account:doc_type:as_of_ms argument.
func parseWorkItem(arg string) (engine.WorkItem, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 4 {
		return engine.WorkItem{}, fmt.Errorf("bad work item %q: want property:account:doc_type:as_of_ms", arg)
	}
	asOf, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return engine.WorkItem{}, fmt.Errorf("bad work item %q: as_of_ms: %w", arg, err)
	}
	return engine.WorkItem{
		PropertyID:   parts[0],
		AccountCode:  parts[1],
		DocumentType: domain.DocumentType(parts[2]),
		AsOfMs:       asOf,
	}, nil
}
