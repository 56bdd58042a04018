package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"newsmesh/internal/core"
)

// ClusterRepo stores event clusters. Centroids live in a pgvector column so
// the engine's in-memory table can be rebuilt after a restart.
type ClusterRepo struct {
	db *sql.DB
}

// Upsert writes a cluster's current state, keyed on id.
func (r *ClusterRepo) Upsert(ctx context.Context, c *core.Cluster) error {
	query := `
		INSERT INTO clusters (
			id, title, keywords, centroid, status, source_count, category,
			first_seen_at, last_updated_at
		) VALUES ($1, $2, $3, CAST($4 AS VECTOR(768)), $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			keywords = EXCLUDED.keywords,
			centroid = EXCLUDED.centroid,
			status = EXCLUDED.status,
			source_count = EXCLUDED.source_count,
			category = EXCLUDED.category,
			last_updated_at = EXCLUDED.last_updated_at
	`
	var centroid interface{}
	if len(c.Centroid) == core.EmbeddingDimensions {
		centroid = formatVector(c.Centroid)
	}
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, pq.Array(c.Keywords), centroid, c.Status, c.SourceCount,
		c.Category, c.FirstSeenAt, c.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cluster %s: %w", c.ID, err)
	}
	return nil
}

// LoadActive returns every open cluster with its centroid, for seeding the
// in-memory engine at cycle start.
func (r *ClusterRepo) LoadActive(ctx context.Context) ([]core.Cluster, error) {
	query := `
		SELECT id, title, keywords, COALESCE(centroid::text, ''), status,
		       source_count, category, first_seen_at, last_updated_at
		FROM clusters
		WHERE status = $1
	`
	rows, err := r.db.QueryContext(ctx, query, core.ClusterActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load active clusters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clusters []core.Cluster
	for rows.Next() {
		var (
			c           core.Cluster
			keywords    pq.StringArray
			centroidStr string
		)
		err := rows.Scan(&c.ID, &c.Title, &keywords, &centroidStr, &c.Status,
			&c.SourceCount, &c.Category, &c.FirstSeenAt, &c.LastUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		c.Keywords = keywords
		if centroidStr != "" {
			if c.Centroid, err = parseVector(centroidStr); err != nil {
				return nil, fmt.Errorf("bad centroid for cluster %s: %w", c.ID, err)
			}
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// MarkClosed transitions the given clusters to closed.
func (r *ClusterRepo) MarkClosed(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE clusters SET status = $2, last_updated_at = $3 WHERE id = ANY($1)`,
		pq.Array(ids), core.ClusterClosed, now,
	)
	if err != nil {
		return fmt.Errorf("failed to close clusters: %w", err)
	}
	return nil
}
