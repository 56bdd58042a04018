package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsmesh/internal/config"
	"newsmesh/internal/logger"
	"newsmesh/internal/persistence"
	"newsmesh/internal/pipeline"
)

// NewRunOnceCmd creates the run-once command: one full cycle, then exit.
func NewRunOnceCmd() *cobra.Command {
	var maxPerFeed int

	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single pipeline cycle and exit",
		Long: `Run one full cycle: fetch feeds, score and cluster new articles, and
publish or revise synthesized articles. Intended for cron-style scheduling.

Exits 0 when the cycle completes or is skipped because another run holds the
lock, non-zero on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), maxPerFeed)
		},
	}
	cmd.Flags().IntVar(&maxPerFeed, "max-per-feed", 0, "override newest entries taken per feed (default from config)")
	return cmd
}

func runOnce(ctx context.Context, maxPerFeed int) error {
	cfg := config.Get()
	if maxPerFeed > 0 {
		cfg.Feeds.MaxPerFeed = maxPerFeed
	}
	log := logger.Get()

	db, err := persistence.New(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	p, err := pipeline.New(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	stats, err := p.RunCycle(ctx)
	if errors.Is(err, pipeline.ErrSkipped) {
		log.Info("Cycle skipped, another run is in progress")
		return nil
	}
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	fmt.Printf("Cycle complete: %d fetched, %d new, %d clustered, %d published, %d revised in %s\n",
		stats.Fetched, stats.New, stats.Clustered, stats.Published, stats.Revised, stats.Duration.Round(time.Second))
	return nil
}
