package urlutil

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"newsmesh/internal/logger"
)

// KnownURLChecker reports whether a normalized URL has already been persisted.
type KnownURLChecker interface {
	URLExists(ctx context.Context, normalizedURL string) (bool, error)
}

// Gate decides whether a normalized URL is new to the system. It fronts the
// store lookup with an LRU of URLs seen this process, so repeated feed entries
// within and across cycles stay cheap.
type Gate struct {
	store KnownURLChecker
	seen  *lru.Cache[string, struct{}]
}

// NewGate creates a dedup gate over the given store checker.
func NewGate(store KnownURLChecker, cacheSize int) (*Gate, error) {
	if cacheSize <= 0 {
		cacheSize = 8192
	}
	seen, err := lru.New[string, struct{}](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Gate{store: store, seen: seen}, nil
}

// IsNew reports whether the normalized URL has not been ingested before.
// A transient store failure is treated as "new"; the unique constraint on
// normalized_url makes the eventual insert idempotent.
func (g *Gate) IsNew(ctx context.Context, normalizedURL string) bool {
	if _, ok := g.seen.Get(normalizedURL); ok {
		return false
	}
	exists, err := g.store.URLExists(ctx, normalizedURL)
	if err != nil {
		logger.Warn("Dedup lookup failed, treating URL as new", "url", normalizedURL, "error", err.Error())
		return true
	}
	if exists {
		g.seen.Add(normalizedURL, struct{}{})
		return false
	}
	return true
}

// MarkSeen records a normalized URL as ingested for the remainder of the
// process lifetime.
func (g *Gate) MarkSeen(normalizedURL string) {
	g.seen.Add(normalizedURL, struct{}{})
}
