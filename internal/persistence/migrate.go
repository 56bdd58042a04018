package persistence

import (
	"context"
	"fmt"

	"newsmesh/internal/logger"
)

// migrations run in order; each statement is idempotent.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS source_articles (
		id UUID PRIMARY KEY,
		normalized_url TEXT NOT NULL,
		original_url TEXT NOT NULL,
		source_name TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		fetched_at TIMESTAMPTZ NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		cluster_id UUID,
		status TEXT NOT NULL DEFAULT 'pending'
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_source_articles_normalized_url
		ON source_articles (normalized_url)`,
	`CREATE INDEX IF NOT EXISTS idx_source_articles_cluster
		ON source_articles (cluster_id)`,
	`CREATE INDEX IF NOT EXISTS idx_source_articles_fetched
		ON source_articles (fetched_at DESC)`,

	`CREATE TABLE IF NOT EXISTS clusters (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		keywords TEXT[] NOT NULL DEFAULT '{}',
		centroid VECTOR(768),
		status TEXT NOT NULL DEFAULT 'active',
		source_count INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clusters_status ON clusters (status)`,

	`CREATE TABLE IF NOT EXISTS published_articles (
		id UUID PRIMARY KEY,
		cluster_id UUID NOT NULL,
		title TEXT NOT NULL,
		summary_bullets TEXT[] NOT NULL DEFAULT '{}',
		content_standard TEXT NOT NULL,
		content_b2 TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		timeline JSONB,
		details TEXT[] NOT NULL DEFAULT '{}',
		graph JSONB,
		map_anchor JSONB,
		countries TEXT[] NOT NULL DEFAULT '{}',
		topics TEXT[] NOT NULL DEFAULT '{}',
		display_score INTEGER NOT NULL DEFAULT 750,
		source_count_at_publish INTEGER NOT NULL DEFAULT 0,
		published_at TIMESTAMPTZ NOT NULL,
		last_revised_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_published_articles_cluster
		ON published_articles (cluster_id)`,
	`CREATE INDEX IF NOT EXISTS idx_published_articles_score
		ON published_articles (display_score DESC)`,

	`CREATE TABLE IF NOT EXISTS pipeline_run_lock (
		id INTEGER PRIMARY KEY,
		is_running BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	)`,
}

// Migrate applies the schema. Safe to run on every deploy.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	logger.Info("Database schema up to date", "statements", len(migrations))
	return nil
}
