// Package pipeline orchestrates one ingestion cycle end to end: feeds in,
// published articles out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsmesh/internal/cluster"
	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/images"
	"newsmesh/internal/logger"
	"newsmesh/internal/publish"
	"newsmesh/internal/rank"
	"newsmesh/internal/sources"
	"newsmesh/internal/synthesize"
	"newsmesh/internal/urlutil"
)

// ErrSkipped is returned when another cycle holds the run lock.
var ErrSkipped = errors.New("cycle skipped: another run is in progress")

// anchorCount is how many recent articles calibrate the display scorer.
const anchorCount = 8

// Pipeline wires the stages together. One instance serves the whole process;
// RunCycle serializes in-process and the store lock serializes across
// processes.
type Pipeline struct {
	cfg *config.Config

	feeds     FeedFetcher
	gate      DedupGate
	scorer    AdmissionScorer
	embedder  Embedder
	fulltext  FullTextFetcher
	synth     Synthesizer
	enricher  Enricher
	ranker    Ranker
	decider   *publish.Decider
	articles  ArticleStore
	clusters  ClusterStore
	published PublishedStore
	lock      LockStore

	mu        sync.Mutex
	lastStats *core.CycleStats
}

// LastStats returns the stats of the most recently completed cycle.
func (p *Pipeline) LastStats() *core.CycleStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStats
}

// RunCycle executes one full cycle under the cycle deadline and the run lock.
func (p *Pipeline) RunCycle(ctx context.Context) (core.CycleStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	stats := core.CycleStats{StartTime: now}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Cycle.Deadline)
	defer cancel()

	acquired, err := p.lock.Acquire(ctx, now, p.cfg.Cycle.LockTimeout)
	if err != nil {
		return stats, fmt.Errorf("run lock: %w", err)
	}
	if !acquired {
		logger.Info("Cycle skipped, run lock held")
		return stats, ErrSkipped
	}
	defer func() {
		// The cycle deadline may already be spent; release on a fresh context.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer releaseCancel()
		if err := p.lock.Release(releaseCtx, time.Now().UTC()); err != nil {
			logger.Error("Failed to release run lock", err)
		}
	}()

	err = p.runStages(ctx, now, &stats)

	stats.EndTime = time.Now().UTC()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	final := stats
	p.lastStats = &final

	logger.Info("Cycle complete",
		"fetched", stats.Fetched, "new", stats.New, "scored", stats.Scored,
		"rejected", stats.Rejected, "clustered", stats.Clustered,
		"opened", stats.ClustersOpened, "closed", stats.ClustersClosed,
		"published", stats.Published, "revised", stats.Revised,
		"duration", stats.Duration.String())
	return stats, err
}

func (p *Pipeline) runStages(ctx context.Context, now time.Time, stats *core.CycleStats) error {
	active, err := p.clusters.LoadActive(ctx)
	if err != nil {
		return fmt.Errorf("loading active clusters: %w", err)
	}
	engine := cluster.NewEngine(p.cfg.Cluster, active)

	// Lifecycle sweep runs before any new work so stale clusters stop
	// attracting members.
	closed := engine.CloseExpired(now)
	if len(closed) > 0 {
		if err := p.clusters.MarkClosed(ctx, closed, now); err != nil {
			logger.Error("Failed to persist closed clusters", err)
		}
		stats.ClustersClosed = len(closed)
	}

	result := p.feeds.FetchAll(ctx, sources.List())
	stats.Fetched = len(result.Articles)
	stats.FeedErrors = result.FeedErrors

	fresh := p.ingest(ctx, result.Articles, now, stats)
	if len(fresh) == 0 {
		logger.Info("No new articles this cycle")
		return nil
	}

	admitted := p.score(ctx, fresh, stats)
	touched := p.clusterArticles(ctx, engine, admitted, now, stats)
	p.fetchFullText(ctx, admitted, stats)

	for clusterID := range touched {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.publishCluster(ctx, engine, clusterID, now, stats)
	}
	return nil
}

// ingest normalizes, dedups, and persists raw feed entries as pending rows.
func (p *Pipeline) ingest(ctx context.Context, raw []core.RawArticle, now time.Time, stats *core.CycleStats) []core.SourceArticle {
	var fresh []core.SourceArticle
	for _, r := range raw {
		norm, err := urlutil.Normalize(r.Link)
		if err != nil {
			norm = urlutil.FallbackIdentity(r.Link, r.Title)
		}
		if !p.gate.IsNew(ctx, norm) {
			continue
		}
		a := core.SourceArticle{
			ID:            uuid.NewString(),
			NormalizedURL: norm,
			OriginalURL:   r.Link,
			SourceName:    r.SourceName,
			Title:         r.Title,
			Description:   r.Description,
			ImageURL:      r.ImageURL,
			PublishedAt:   r.PublishedAt,
			FetchedAt:     now,
			Status:        core.StatusPending,
		}
		inserted, err := p.articles.Insert(ctx, &a)
		if err != nil {
			logger.Error("Failed to insert article", err, "url", norm)
			continue
		}
		p.gate.MarkSeen(norm)
		if inserted {
			fresh = append(fresh, a)
		}
	}
	stats.New = len(fresh)
	return fresh
}

// score runs admission scoring and persists every verdict.
func (p *Pipeline) score(ctx context.Context, fresh []core.SourceArticle, stats *core.CycleStats) []core.SourceArticle {
	byID := make(map[string]core.SourceArticle, len(fresh))
	for _, a := range fresh {
		byID[a.ID] = a
	}

	verdicts := p.scorer.ScoreAll(ctx, fresh)
	stats.Scored = len(verdicts)

	var admitted []core.SourceArticle
	for _, v := range verdicts {
		a, ok := byID[v.ID]
		if !ok {
			continue
		}
		a.Score = v.Score
		a.Category = v.Category
		status := core.StatusRejected
		if v.Admitted {
			status = core.StatusPending
		}
		if err := p.articles.UpdateVerdict(ctx, v.ID, v.Score, v.Category, status); err != nil {
			logger.Error("Failed to persist verdict", err, "article", v.ID)
		}
		if v.Admitted {
			admitted = append(admitted, a)
		} else {
			stats.Rejected++
		}
	}
	return admitted
}

// clusterArticles routes admitted articles through the engine one at a time
// (centroid updates must not interleave) and returns the touched cluster ids.
func (p *Pipeline) clusterArticles(ctx context.Context, engine *cluster.Engine, admitted []core.SourceArticle, now time.Time, stats *core.CycleStats) map[string]bool {
	touched := make(map[string]bool)
	for _, a := range admitted {
		embedding, err := p.embedder.Embed(ctx, a.Title+"\n"+a.Description)
		if err != nil {
			logger.Warn("Embedding failed, using lexical fallback", "article", a.ID, "error", err.Error())
			stats.EmbedFallbacks++
			embedding = nil
		}

		assignment := engine.Assign(a, embedding, now)
		if assignment.Opened {
			stats.ClustersOpened++
		}
		stats.Clustered++
		touched[assignment.Cluster.ID] = true

		if err := p.articles.AssignCluster(ctx, a.ID, assignment.Cluster.ID); err != nil {
			logger.Error("Failed to assign cluster", err, "article", a.ID)
		}
		snapshot := assignment.Cluster
		if err := p.clusters.Upsert(ctx, &snapshot); err != nil {
			logger.Error("Failed to persist cluster", err, "cluster", snapshot.ID)
		}
	}
	return touched
}

// fetchFullText retrieves bodies for this cycle's admitted articles and
// persists them alongside any page-level image.
func (p *Pipeline) fetchFullText(ctx context.Context, admitted []core.SourceArticle, stats *core.CycleStats) {
	if len(admitted) == 0 {
		return
	}
	urls := make([]string, 0, len(admitted))
	byURL := make(map[string][]string)
	for _, a := range admitted {
		urls = append(urls, a.OriginalURL)
		byURL[a.OriginalURL] = append(byURL[a.OriginalURL], a.ID)
	}

	results, failures := p.fulltext.FetchAll(ctx, urls)
	stats.FetchErrors = failures
	for u, ft := range results {
		for _, id := range byURL[u] {
			if err := p.articles.UpdateContent(ctx, id, ft.Text, ft.OGImage); err != nil {
				logger.Error("Failed to persist full text", err, "article", id)
			}
		}
	}
}

// publishCluster runs synthesis, enrichment, ranking, and the upsert for one
// touched cluster, honoring the publisher's trigger rules.
func (p *Pipeline) publishCluster(ctx context.Context, engine *cluster.Engine, clusterID string, now time.Time, stats *core.CycleStats) {
	c, ok := engine.Get(clusterID)
	if !ok {
		return
	}

	st, err := p.published.State(ctx, clusterID)
	if err != nil {
		logger.Error("Failed to read publish state", err, "cluster", clusterID)
		return
	}
	topNew := 0
	if st.Published {
		if topNew, err = p.articles.TopScoreSince(ctx, clusterID, st.LastRevisedAt); err != nil {
			logger.Error("Failed to read member scores", err, "cluster", clusterID)
		}
	}

	action, reason := p.decider.Decide(c, publish.State{
		Published:            st.Published,
		SourceCountAtPublish: st.SourceCountAtPublish,
		LastRevisedAt:        st.LastRevisedAt,
	}, topNew, now)
	if action == publish.ActionSkip {
		logger.Debug("Skipping cluster", "cluster", clusterID, "reason", reason)
		return
	}

	members, err := p.articles.GetByCluster(ctx, clusterID)
	if err != nil || len(members) == 0 {
		logger.Error("Failed to load cluster members", err, "cluster", clusterID)
		return
	}

	synthesis, err := p.synth.Synthesize(ctx, c, buildSourceInputs(members))
	if err != nil {
		logger.Error("Synthesis failed", err, "cluster", clusterID)
		stats.LLMErrors++
		return
	}
	stats.Synthesized++

	enrichment := p.enricher.Enrich(ctx, clusterID, synthesis)

	var anchors []rank.Anchor
	if recent, err := p.published.RecentScores(ctx, anchorCount); err == nil {
		for _, r := range recent {
			anchors = append(anchors, rank.Anchor{Title: r.Title, Score: r.Score})
		}
	}
	displayScore := p.ranker.ScoreDisplay(ctx, synthesis.Title, synthesis.SummaryBullets, anchors)
	countries, topics := p.ranker.Tag(ctx, synthesis.Title, synthesis.SummaryBullets, synthesis.Category)

	imageURL := ""
	if img, ok := images.Select(imageCandidates(members, p.scoreCeiling())); ok {
		imageURL = img.URL
	}

	article := core.PublishedArticle{
		ID:              uuid.NewString(),
		ClusterID:       clusterID,
		Title:           synthesis.Title,
		SummaryBullets:  synthesis.SummaryBullets,
		ContentStandard: synthesis.ContentStandard,
		ContentB2:       synthesis.ContentB2,
		ImageURL:        imageURL,
		Timeline:        enrichment.Timeline,
		Details:         enrichment.Details,
		Graph:           enrichment.Graph,
		Map:             enrichment.Map,
		Countries:       countries,
		Topics:          topics,
		DisplayScore:    displayScore,
		PublishedAt:     now,
		LastRevisedAt:   now,
	}
	if err := p.published.Upsert(ctx, &article, c.SourceCount); err != nil {
		logger.Error("Failed to upsert published article", err, "cluster", clusterID)
		return
	}

	// The synthesized title becomes the cluster's canonical one.
	c.Title = synthesis.Title
	if synthesis.Category != "" {
		c.Category = synthesis.Category
	}
	if err := p.clusters.Upsert(ctx, &c); err != nil {
		logger.Error("Failed to persist cluster title", err, "cluster", clusterID)
	}

	if action == publish.ActionRevise {
		stats.Revised++
		logger.Info("Revised article", "cluster", clusterID, "reason", reason, "score", displayScore)
	} else {
		stats.Published++
		logger.Info("Published article", "cluster", clusterID, "sources", c.SourceCount, "score", displayScore)
	}
}

// scoreCeiling is the top of the active admission contract's range, used to
// normalize article scores for image selection.
func (p *Pipeline) scoreCeiling() int {
	if p.cfg.Scoring.Contract == "B" {
		return 1000
	}
	return 100
}

// buildSourceInputs prepares cluster members for synthesis, preferring full
// text over the feed description.
func buildSourceInputs(members []core.SourceArticle) []synthesize.SourceInput {
	inputs := make([]synthesize.SourceInput, len(members))
	for i, m := range members {
		text := m.Content
		if text == "" {
			text = m.Description
		}
		inputs[i] = synthesize.SourceInput{
			SourceName:  m.SourceName,
			Credibility: sources.Credibility(m.SourceName),
			Title:       m.Title,
			Text:        text,
			PublishedAt: m.PublishedAt,
		}
	}
	return inputs
}

// imageCandidates collects every member's image for selection.
func imageCandidates(members []core.SourceArticle, ceiling int) []images.Candidate {
	var candidates []images.Candidate
	for _, m := range members {
		if m.ImageURL == "" {
			continue
		}
		candidates = append(candidates, images.Candidate{
			URL:          m.ImageURL,
			SourceName:   m.SourceName,
			ArticleScore: m.Score,
			ScoreCeiling: ceiling,
		})
	}
	return candidates
}
