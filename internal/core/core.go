// Package core defines the domain records shared by every pipeline stage.
package core

import "time"

// ArticleStatus tracks where a SourceArticle sits in the pipeline.
type ArticleStatus string

const (
	StatusPending   ArticleStatus = "pending"
	StatusClustered ArticleStatus = "clustered"
	StatusRejected  ArticleStatus = "rejected"
)

// ClusterStatus is the lifecycle state of an event cluster.
type ClusterStatus string

const (
	ClusterActive ClusterStatus = "active"
	ClusterClosed ClusterStatus = "closed"
)

// EmbeddingDimensions is the fixed dimensionality of article and centroid vectors.
const EmbeddingDimensions = 768

// Source is an immutable feed descriptor from the catalogue.
type Source struct {
	Name        string `json:"name"`        // Human-readable source name (e.g., "Reuters")
	FeedURL     string `json:"feed_url"`    // RSS/Atom feed URL
	Category    string `json:"category"`    // Editorial category (world, business, science, ...)
	Credibility int    `json:"credibility"` // 1-10 reputation tier used for conflict resolution
}

// RawArticle is a feed entry as emitted by the fetcher, before dedup and scoring.
// Never mutated after creation.
type RawArticle struct {
	SourceName  string     `json:"source_name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	GUID        string     `json:"guid,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Author      string     `json:"author,omitempty"`
}

// SourceArticle is a persisted, deduplicated article row.
type SourceArticle struct {
	ID            string        `json:"id"`
	NormalizedURL string        `json:"normalized_url"` // Unique across the table
	OriginalURL   string        `json:"original_url"`
	SourceName    string        `json:"source_name"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Content       string        `json:"content,omitempty"` // Full text when fetched
	ImageURL      string        `json:"image_url,omitempty"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	FetchedAt     time.Time     `json:"fetched_at"`
	Score         int           `json:"score"` // Admission score; range depends on the active contract
	Category      string        `json:"category"`
	ClusterID     string        `json:"cluster_id,omitempty"` // Set once status becomes clustered
	Status        ArticleStatus `json:"status"`
}

// Cluster groups source articles that describe the same real-world event.
type Cluster struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"` // Current canonical title
	Keywords      []string      `json:"keywords"`
	Centroid      []float64     `json:"centroid"` // Running mean of member embeddings
	Status        ClusterStatus `json:"status"`
	SourceCount   int           `json:"source_count"`
	Category      string        `json:"category"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastUpdatedAt time.Time     `json:"last_updated_at"`
}

// TimelineEvent is one dated entry in a published article's timeline.
type TimelineEvent struct {
	Date  string `json:"date"`  // e.g. "Oct 14, 2024" or "14:30, Oct 14"
	Event string `json:"event"` // At most 14 words
}

// GraphPoint is a single datapoint in a published article's data series.
type GraphPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Graph is a verified numeric series attached to a published article.
type Graph struct {
	Title  string       `json:"title"`
	Type   string       `json:"type"` // line, bar
	Unit   string       `json:"unit,omitempty"`
	Points []GraphPoint `json:"points"` // At least 4
	Source string       `json:"source"` // Citation, required
}

// MapAnchor is a specific newsworthy location attached to a published article.
type MapAnchor struct {
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Reason    string  `json:"reason"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PublishedArticle is the synthesized multi-source article for one cluster.
type PublishedArticle struct {
	ID              string          `json:"id"`
	ClusterID       string          `json:"cluster_id"` // Unique per active cluster lifetime
	Title           string          `json:"title"`
	SummaryBullets  []string        `json:"summary_bullets"` // Exactly 4, each 15-25 words
	ContentStandard string          `json:"content_standard"` // 300-400 words
	ContentB2       string          `json:"content_b2"`       // 300-400 words at B2 English
	ImageURL        string          `json:"image_url,omitempty"`
	Timeline        []TimelineEvent `json:"timeline,omitempty"` // 2-4 events when present
	Details         []string        `json:"details,omitempty"`  // Exactly 3 label:value strings when present
	Graph           *Graph          `json:"graph,omitempty"`
	Map             *MapAnchor      `json:"map,omitempty"`
	Countries       []string        `json:"countries"` // Up to 3 codes from the closed vocabulary
	Topics          []string        `json:"topics"`    // 1-3 codes, at least one required
	DisplayScore    int             `json:"display_score"` // 0-1000
	PublishedAt     time.Time       `json:"published_at"`
	LastRevisedAt   time.Time       `json:"last_revised_at"`
}

// Synthesis is the raw output of the multi-source synthesizer before enrichment.
type Synthesis struct {
	Title           string   `json:"title"`
	SummaryBullets  []string `json:"summary_bullets"`
	ContentStandard string   `json:"content_standard"`
	ContentB2       string   `json:"content_b2"`
	Keywords        []string `json:"keywords"`
	Category        string   `json:"category"`
}

// RunLock is the single-row advisory lock preventing overlapping cycles.
type RunLock struct {
	IsRunning  bool       `json:"is_running"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CycleStats aggregates per-stage counters for one pipeline cycle.
type CycleStats struct {
	Fetched        int `json:"fetched"`
	New            int `json:"new"`
	Scored         int `json:"scored"`
	Rejected       int `json:"rejected"`
	Clustered      int `json:"clustered"`
	ClustersOpened int `json:"clusters_opened"`
	ClustersClosed int `json:"clusters_closed"`
	Synthesized    int `json:"synthesized"`
	Published      int `json:"published"`
	Revised        int `json:"revised"`
	FeedErrors     int `json:"feed_errors"`
	FetchErrors    int `json:"fetch_errors"`
	LLMErrors      int `json:"llm_errors"`
	EmbedFallbacks int `json:"embed_fallbacks"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}
