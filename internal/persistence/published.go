package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"newsmesh/internal/core"
)

// PublishedRepo stores the reader-facing synthesized articles, one per
// cluster lifetime.
type PublishedRepo struct {
	db *sql.DB
}

// PublishState is what the publisher's trigger rules need to know about a
// cluster's last publication.
type PublishState struct {
	Published            bool
	SourceCountAtPublish int
	PublishedAt          time.Time
	LastRevisedAt        time.Time
}

// ScoredTitle is a recently published article used as a calibration anchor
// for the display scorer.
type ScoredTitle struct {
	Title string
	Score int
}

// Upsert writes a published article keyed on cluster_id. Revisions update
// the row in place: published_at keeps its original value, last_revised_at
// advances, and the source count at publication is re-snapshotted.
func (r *PublishedRepo) Upsert(ctx context.Context, a *core.PublishedArticle, sourceCount int) error {
	timelineJSON, err := json.Marshal(a.Timeline)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	graphJSON, err := json.Marshal(a.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	mapJSON, err := json.Marshal(a.Map)
	if err != nil {
		return fmt.Errorf("failed to marshal map: %w", err)
	}

	query := `
		INSERT INTO published_articles (
			id, cluster_id, title, summary_bullets, content_standard, content_b2,
			image_url, timeline, details, graph, map_anchor, countries, topics,
			display_score, source_count_at_publish, published_at, last_revised_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (cluster_id) DO UPDATE SET
			title = EXCLUDED.title,
			summary_bullets = EXCLUDED.summary_bullets,
			content_standard = EXCLUDED.content_standard,
			content_b2 = EXCLUDED.content_b2,
			image_url = EXCLUDED.image_url,
			timeline = EXCLUDED.timeline,
			details = EXCLUDED.details,
			graph = EXCLUDED.graph,
			map_anchor = EXCLUDED.map_anchor,
			countries = EXCLUDED.countries,
			topics = EXCLUDED.topics,
			display_score = EXCLUDED.display_score,
			source_count_at_publish = EXCLUDED.source_count_at_publish,
			last_revised_at = EXCLUDED.last_revised_at
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.ClusterID, a.Title, pq.Array(a.SummaryBullets), a.ContentStandard, a.ContentB2,
		a.ImageURL, timelineJSON, pq.Array(a.Details), graphJSON, mapJSON,
		pq.Array(a.Countries), pq.Array(a.Topics),
		a.DisplayScore, sourceCount, a.PublishedAt, a.LastRevisedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert published article for cluster %s: %w", a.ClusterID, err)
	}
	return nil
}

// State returns the publication state for a cluster. A zero state means the
// cluster has never been published.
func (r *PublishedRepo) State(ctx context.Context, clusterID string) (PublishState, error) {
	var st PublishState
	err := r.db.QueryRowContext(ctx,
		`SELECT source_count_at_publish, published_at, last_revised_at
		 FROM published_articles WHERE cluster_id = $1`,
		clusterID,
	).Scan(&st.SourceCountAtPublish, &st.PublishedAt, &st.LastRevisedAt)
	if err == sql.ErrNoRows {
		return PublishState{}, nil
	}
	if err != nil {
		return PublishState{}, fmt.Errorf("failed to query publish state for cluster %s: %w", clusterID, err)
	}
	st.Published = true
	return st, nil
}

// RecentScores returns the newest published titles with their display scores,
// for calibrating the display scorer.
func (r *PublishedRepo) RecentScores(ctx context.Context, limit int) ([]ScoredTitle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title, display_score FROM published_articles
		 ORDER BY last_revised_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var anchors []ScoredTitle
	for rows.Next() {
		var a ScoredTitle
		if err := rows.Scan(&a.Title, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan anchor: %w", err)
		}
		anchors = append(anchors, a)
	}
	return anchors, rows.Err()
}
