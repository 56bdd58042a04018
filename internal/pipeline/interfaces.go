package pipeline

import (
	"context"
	"time"

	"newsmesh/internal/core"
	"newsmesh/internal/enrich"
	"newsmesh/internal/feeds"
	"newsmesh/internal/fetch"
	"newsmesh/internal/persistence"
	"newsmesh/internal/rank"
	"newsmesh/internal/scorer"
	"newsmesh/internal/synthesize"
)

// FeedFetcher pulls raw articles from the source catalogue.
type FeedFetcher interface {
	FetchAll(ctx context.Context, srcs []core.Source) feeds.Result
}

// AdmissionScorer batch-scores pending articles.
type AdmissionScorer interface {
	ScoreAll(ctx context.Context, articles []core.SourceArticle) []scorer.Verdict
}

// Embedder produces article embeddings for the clustering engine.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// FullTextFetcher retrieves article bodies for cluster members, reporting how
// many URLs failed both tiers.
type FullTextFetcher interface {
	FetchAll(ctx context.Context, urls []string) (map[string]fetch.FullText, int)
}

// Synthesizer writes the canonical article for a cluster.
type Synthesizer interface {
	Synthesize(ctx context.Context, cluster core.Cluster, srcs []synthesize.SourceInput) (core.Synthesis, error)
}

// Enricher attaches optional display components.
type Enricher interface {
	Enrich(ctx context.Context, clusterID string, s core.Synthesis) enrich.Enrichment
}

// Ranker assigns the display score and tags.
type Ranker interface {
	ScoreDisplay(ctx context.Context, title string, bullets []string, anchors []rank.Anchor) int
	Tag(ctx context.Context, title string, bullets []string, category string) (countries, topics []string)
}

// ArticleStore is the source_articles surface the pipeline writes through.
type ArticleStore interface {
	Insert(ctx context.Context, a *core.SourceArticle) (bool, error)
	UpdateVerdict(ctx context.Context, id string, score int, category string, status core.ArticleStatus) error
	AssignCluster(ctx context.Context, id, clusterID string) error
	UpdateContent(ctx context.Context, id, content, imageURL string) error
	GetByCluster(ctx context.Context, clusterID string) ([]core.SourceArticle, error)
	TopScoreSince(ctx context.Context, clusterID string, cutoff time.Time) (int, error)
}

// ClusterStore persists cluster state across cycles.
type ClusterStore interface {
	Upsert(ctx context.Context, c *core.Cluster) error
	LoadActive(ctx context.Context) ([]core.Cluster, error)
	MarkClosed(ctx context.Context, ids []string, now time.Time) error
}

// PublishedStore persists the reader-facing articles.
type PublishedStore interface {
	Upsert(ctx context.Context, a *core.PublishedArticle, sourceCount int) error
	State(ctx context.Context, clusterID string) (persistence.PublishState, error)
	RecentScores(ctx context.Context, limit int) ([]persistence.ScoredTitle, error)
}

// LockStore is the cross-process run lock.
type LockStore interface {
	Acquire(ctx context.Context, now time.Time, timeout time.Duration) (bool, error)
	Release(ctx context.Context, now time.Time) error
}

// DedupGate filters already-ingested URLs.
type DedupGate interface {
	IsNew(ctx context.Context, normalizedURL string) bool
	MarkSeen(normalizedURL string)
}
