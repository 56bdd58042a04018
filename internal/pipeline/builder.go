package pipeline

import (
	"fmt"

	"newsmesh/internal/config"
	"newsmesh/internal/enrich"
	"newsmesh/internal/feeds"
	"newsmesh/internal/fetch"
	"newsmesh/internal/llm"
	"newsmesh/internal/persistence"
	"newsmesh/internal/publish"
	"newsmesh/internal/rank"
	"newsmesh/internal/scorer"
	"newsmesh/internal/synthesize"
	"newsmesh/internal/urlutil"
)

// gateCacheSize bounds the in-process dedup cache.
const gateCacheSize = 16384

// New wires the concrete components into a pipeline.
func New(cfg *config.Config, db *persistence.DB) (*Pipeline, error) {
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	gate, err := urlutil.NewGate(db.Articles(), gateCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dedup gate: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		feeds:     feeds.NewFetcher(cfg.Feeds, gate),
		gate:      gate,
		scorer:    scorer.New(client, cfg.Scoring),
		embedder:  client,
		fulltext:  fetch.NewFetcher(cfg.FullText, cfg.Feeds.UserAgent),
		synth:     synthesize.New(client),
		enricher:  enrich.New(client),
		ranker:    rank.New(client),
		decider:   publish.NewDecider(cfg.Publish),
		articles:  db.Articles(),
		clusters:  db.Clusters(),
		published: db.Published(),
		lock:      db.RunLock(),
	}, nil
}
