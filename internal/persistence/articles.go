package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsmesh/internal/core"
)

// ArticleRepo stores deduplicated source articles.
type ArticleRepo struct {
	db *sql.DB
}

// Insert writes a new article row. The unique constraint on normalized_url is
// the last line of dedup defense: a conflicting row is left untouched and
// inserted=false is returned.
func (r *ArticleRepo) Insert(ctx context.Context, a *core.SourceArticle) (inserted bool, err error) {
	query := `
		INSERT INTO source_articles (
			id, normalized_url, original_url, source_name, title, description,
			content, image_url, published_at, fetched_at, score, category, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (normalized_url) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.NormalizedURL, a.OriginalURL, a.SourceName, a.Title, a.Description,
		a.Content, a.ImageURL, nullTime(a.PublishedAt), a.FetchedAt, a.Score, a.Category, a.Status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// URLExists reports whether a normalized URL is already in the store. The
// dedup gate consults this behind its in-memory cache.
func (r *ArticleRepo) URLExists(ctx context.Context, normalizedURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM source_articles WHERE normalized_url = $1)`,
		normalizedURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check url: %w", err)
	}
	return exists, nil
}

// UpdateVerdict records the admission scorer's output for an article.
func (r *ArticleRepo) UpdateVerdict(ctx context.Context, id string, score int, category string, status core.ArticleStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE source_articles SET score = $2, category = $3, status = $4 WHERE id = $1`,
		id, score, category, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update verdict for article %s: %w", id, err)
	}
	return nil
}

// AssignCluster marks an article as clustered.
func (r *ArticleRepo) AssignCluster(ctx context.Context, id, clusterID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE source_articles SET cluster_id = $2, status = $3 WHERE id = $1`,
		id, clusterID, core.StatusClustered,
	)
	if err != nil {
		return fmt.Errorf("failed to assign article %s to cluster: %w", id, err)
	}
	return nil
}

// UpdateContent stores the fetched full text and any page-level image.
func (r *ArticleRepo) UpdateContent(ctx context.Context, id, content, imageURL string) error {
	query := `
		UPDATE source_articles
		SET content = $2,
		    image_url = CASE WHEN $3 <> '' THEN $3 ELSE image_url END
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, content, imageURL); err != nil {
		return fmt.Errorf("failed to update content for article %s: %w", id, err)
	}
	return nil
}

// GetByCluster returns a cluster's members, newest first.
func (r *ArticleRepo) GetByCluster(ctx context.Context, clusterID string) ([]core.SourceArticle, error) {
	query := `
		SELECT id, normalized_url, original_url, source_name, title, description,
		       content, image_url, published_at, fetched_at, score, category,
		       COALESCE(cluster_id, ''), status
		FROM source_articles
		WHERE cluster_id = $1
		ORDER BY published_at DESC NULLS LAST, fetched_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []core.SourceArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// TopScoreSince returns the highest admission score among a cluster's members
// fetched after the cutoff. Feeds the publisher's high-value revision trigger.
func (r *ArticleRepo) TopScoreSince(ctx context.Context, clusterID string, cutoff time.Time) (int, error) {
	var top sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(score) FROM source_articles WHERE cluster_id = $1 AND fetched_at > $2`,
		clusterID, cutoff,
	).Scan(&top)
	if err != nil {
		return 0, fmt.Errorf("failed to query top score: %w", err)
	}
	return int(top.Int64), nil
}

func scanArticle(rows *sql.Rows) (core.SourceArticle, error) {
	var (
		a         core.SourceArticle
		published sql.NullTime
	)
	err := rows.Scan(
		&a.ID, &a.NormalizedURL, &a.OriginalURL, &a.SourceName, &a.Title, &a.Description,
		&a.Content, &a.ImageURL, &published, &a.FetchedAt, &a.Score, &a.Category,
		&a.ClusterID, &a.Status,
	)
	if err != nil {
		return core.SourceArticle{}, fmt.Errorf("failed to scan article: %w", err)
	}
	a.PublishedAt = timePtr(published)
	return a, nil
}
