// Package main recomputes detector bucket weights from reviewer feedback
// and publishes a new snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"property-risk-lab/internal/calibration"
	"property-risk-lab/internal/config"
	"property-risk-lab/internal/logging"
	"property-risk-lab/internal/scoring"
	"property-risk-lab/internal/storage"
	"property-risk-lab/internal/storage/migrations"
	"property-risk-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	windowDays := flag.Int("window-days", 0, "Feedback lookback window override (days)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: recalibrate -config <path> [-window-days N]")
		os.Exit(1)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Postgres.DSN == "" {
		fmt.Fprintln(os.Stderr, "postgres.dsn is required")
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Postgres error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}

	candidates := postgres.NewCandidateStore(pool)
	feedback := postgres.NewFeedbackStore(pool)
	snapshots := postgres.NewWeightSnapshotStore(pool)

	// The scorer doubles as the weight publisher; seed it with the latest
	// snapshot so an empty feedback window keeps the current version.
	table, err := snapshots.GetLatest(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Snapshot error: %v\n", err)
		os.Exit(1)
	}
	scorer := scoring.NewScorer(table, candidates, log)

	window := cfg.Calibration.WindowDays
	if *windowDays > 0 {
		window = *windowDays
	}
	svc := calibration.NewService(feedback, candidates, snapshots, scorer, window, log)

	version, count, err := svc.Recalibrate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recalibration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recalibration completed:\n")
	fmt.Printf("  Weight version:     %s\n", version)
	fmt.Printf("  Feedback processed: %d\n", count)
}
