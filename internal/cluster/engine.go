// Package cluster assigns scored articles to event clusters and manages
// cluster lifecycle.
package cluster

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
)

// lexicalFallbackJaccard is the stricter overlap required when no embedding is
// available and the lexical test carries the whole decision.
const lexicalFallbackJaccard = 0.5

// keywordLimit caps a cluster's keyword set.
const keywordLimit = 12

// Assignment is the outcome of routing one article through the engine.
type Assignment struct {
	Cluster core.Cluster // Snapshot after the update
	Opened  bool         // True when the article started a new cluster
}

// Engine holds the in-memory table of active clusters for one cycle. All
// mutation goes through a single mutex: attach, centroid update, keyword
// merge, and close are atomic with respect to each other.
type Engine struct {
	mu       sync.Mutex
	cfg      config.Cluster
	clusters map[string]*core.Cluster
}

// NewEngine creates an engine seeded with the store's active clusters.
func NewEngine(cfg config.Cluster, active []core.Cluster) *Engine {
	clusters := make(map[string]*core.Cluster, len(active))
	for i := range active {
		c := active[i]
		if c.Status == core.ClusterActive {
			clusters[c.ID] = &c
		}
	}
	return &Engine{cfg: cfg, clusters: clusters}
}

// Assign routes one scored article: continue the best-matching active cluster
// or open a new one. A nil embedding switches to the lexical fallback with the
// stricter overlap threshold.
func (e *Engine) Assign(a core.SourceArticle, embedding []float64, now time.Time) Assignment {
	e.mu.Lock()
	defer e.mu.Unlock()

	var target *core.Cluster
	if embedding != nil {
		target = e.matchByEmbedding(a, embedding)
	} else {
		target = e.matchByLexical(a)
	}

	if target == nil {
		opened := e.open(a, embedding, now)
		return Assignment{Cluster: *opened, Opened: true}
	}

	e.attach(target, a, embedding, now)
	return Assignment{Cluster: *target, Opened: false}
}

// matchByEmbedding implements the similarity decision rule: attach at or above
// t_high outright, run the lexical tiebreak in the [t_mid, t_high) band,
// otherwise report no match.
func (e *Engine) matchByEmbedding(a core.SourceArticle, embedding []float64) *core.Cluster {
	var (
		best    *core.Cluster
		bestSim float64
	)
	for _, c := range e.clusters {
		if len(c.Centroid) == 0 {
			continue
		}
		sim := CosineSimilarity(embedding, c.Centroid)
		if best == nil || sim > bestSim || (sim == bestSim && c.LastUpdatedAt.After(best.LastUpdatedAt)) {
			best = c
			bestSim = sim
		}
	}
	if best == nil {
		return nil
	}
	if bestSim >= e.cfg.THigh {
		return best
	}
	if bestSim >= e.cfg.TMid && e.lexicalOverlap(a, best) >= e.cfg.Jaccard {
		return best
	}
	return nil
}

// matchByLexical is the embedding-outage path: the best Jaccard overlap must
// clear the stricter fallback threshold on its own.
func (e *Engine) matchByLexical(a core.SourceArticle) *core.Cluster {
	var (
		best        *core.Cluster
		bestOverlap float64
	)
	for _, c := range e.clusters {
		overlap := e.lexicalOverlap(a, c)
		if best == nil || overlap > bestOverlap || (overlap == bestOverlap && c.LastUpdatedAt.After(best.LastUpdatedAt)) {
			best = c
			bestOverlap = overlap
		}
	}
	if best != nil && bestOverlap >= lexicalFallbackJaccard {
		return best
	}
	return nil
}

// lexicalOverlap computes Jaccard over significant tokens of the article title
// against the cluster's title plus keywords.
func (e *Engine) lexicalOverlap(a core.SourceArticle, c *core.Cluster) float64 {
	articleTokens := SignificantTokens(a.Title)
	clusterTokens := SignificantTokens(c.Title + " " + strings.Join(c.Keywords, " "))
	return Jaccard(articleTokens, clusterTokens)
}

// attach adds the article to the cluster: running-mean centroid update,
// keyword merge, freshness bump.
func (e *Engine) attach(c *core.Cluster, a core.SourceArticle, embedding []float64, now time.Time) {
	n := float64(c.SourceCount)
	if embedding != nil && len(c.Centroid) == len(embedding) {
		updated := make([]float64, len(c.Centroid))
		for i := range c.Centroid {
			updated[i] = (n*c.Centroid[i] + embedding[i]) / (n + 1)
		}
		c.Centroid = updated
	}
	c.SourceCount++
	c.Keywords = mergeKeywords(c.Keywords, ExtractKeywords(a.Title, keywordLimit), keywordLimit)
	c.LastUpdatedAt = now
}

// open creates a new active cluster seeded by the article.
func (e *Engine) open(a core.SourceArticle, embedding []float64, now time.Time) *core.Cluster {
	c := &core.Cluster{
		ID:            uuid.NewString(),
		Title:         a.Title,
		Keywords:      ExtractKeywords(a.Title+" "+a.Description, keywordLimit),
		Centroid:      embedding,
		Status:        core.ClusterActive,
		SourceCount:   1,
		Category:      a.Category,
		FirstSeenAt:   now,
		LastUpdatedAt: now,
	}
	e.clusters[c.ID] = c
	return c
}

// CloseExpired marks clusters closed per the idle and total-age rules and
// returns the ids it closed. Closed clusters stop matching immediately.
func (e *Engine) CloseExpired(now time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var closed []string
	for id, c := range e.clusters {
		if now.Sub(c.LastUpdatedAt) > e.cfg.IdleHours || now.Sub(c.FirstSeenAt) > e.cfg.MaxHours {
			c.Status = core.ClusterClosed
			closed = append(closed, id)
			delete(e.clusters, id)
		}
	}
	return closed
}

// Get returns a snapshot of one active cluster.
func (e *Engine) Get(id string) (core.Cluster, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clusters[id]
	if !ok {
		return core.Cluster{}, false
	}
	return *c, true
}

// ActiveCount reports the number of active clusters in the table.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clusters)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
