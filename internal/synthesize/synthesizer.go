// Package synthesize produces one canonical article from all sources in a
// cluster, at two reading levels.
package synthesize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsmesh/internal/core"
	"newsmesh/internal/llm"
	"newsmesh/internal/logger"
)

// maxAttempts bounds retries when the model misses the structural contract.
const maxAttempts = 3

// perSourceTextCap keeps any single source from dominating the prompt.
const perSourceTextCap = 6000

// Generator is the slice of the LLM client the synthesizer needs.
type Generator interface {
	GenerateJSON(ctx context.Context, req llm.GenerateRequest, v any) error
}

// SourceInput is one cluster member prepared for synthesis.
type SourceInput struct {
	SourceName  string
	Credibility int
	Title       string
	Text        string // Full text, or the description when fetch failed
	PublishedAt *time.Time
}

// Synthesizer turns a cluster's sources into a single article.
type Synthesizer struct {
	gen Generator
}

// New creates a synthesizer.
func New(gen Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize produces the canonical article for a cluster. The structural
// contract (bullet and word-count bounds) is enforced post-LLM with retries;
// a cluster whose synthesis never validates stays unpublished this cycle.
func (s *Synthesizer) Synthesize(ctx context.Context, cluster core.Cluster, srcs []SourceInput) (core.Synthesis, error) {
	if len(srcs) == 0 {
		return core.Synthesis{}, fmt.Errorf("cluster %s has no sources to synthesize", cluster.ID)
	}

	prompt := buildPrompt(cluster, srcs)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var out core.Synthesis
		if err := s.gen.GenerateJSON(ctx, llm.GenerateRequest{
			Prompt:      prompt,
			Temperature: 0.3,
			MaxTokens:   4096,
		}, &out); err != nil {
			lastErr = err
			continue
		}
		if err := Validate(out); err != nil {
			logger.Debug("Synthesis failed validation", "cluster", cluster.ID, "attempt", attempt, "error", err.Error())
			lastErr = err
			continue
		}
		return out, nil
	}
	return core.Synthesis{}, fmt.Errorf("synthesis for cluster %s failed after %d attempts: %w", cluster.ID, maxAttempts, lastErr)
}

// Validate checks the structural contract of a synthesis.
func Validate(s core.Synthesis) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("empty title")
	}
	if len(s.SummaryBullets) != 4 {
		return fmt.Errorf("expected 4 summary bullets, got %d", len(s.SummaryBullets))
	}
	for i, bullet := range s.SummaryBullets {
		words := wordCount(bullet)
		if words < 15 || words > 25 {
			return fmt.Errorf("bullet %d has %d words, want 15-25", i+1, words)
		}
	}
	for _, body := range []struct {
		name string
		text string
	}{
		{"content_standard", s.ContentStandard},
		{"content_b2", s.ContentB2},
	} {
		words := wordCount(body.text)
		if words < 300 || words > 400 {
			return fmt.Errorf("%s has %d words, want 300-400", body.name, words)
		}
	}
	return nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// buildPrompt lays out cluster metadata and every source with its timestamp
// and credibility so the model can resolve conflicts the way the contract
// requires: newer first, then higher credibility with inline attribution.
func buildPrompt(cluster core.Cluster, srcs []SourceInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a wire-service editor. Write ONE article synthesizing the sources below, which all cover the same event.

Event: %s
Category: %s

Rules:
- Write as firsthand reporting. Never write "reports say" or "according to reports".
- When sources conflict, prefer the newer timestamp. If still contradictory, state the version from the higher-credibility source and attribute it inline ("the health ministry said").
- summary_bullets: exactly 4 bullets, each 15-25 words, covering in order: what/where/when, who is involved, impact, context.
- content_standard: 300-400 words of standard newswriting.
- content_b2: 300-400 words covering the same facts in CEFR B2 English (simpler vocabulary and sentence structure, no fact dropped).
- keywords: 5-10 lowercase topical keywords.
- category: one of world, business, technology, science, health, politics, sport, culture.

Sources:
`, cluster.Title, cluster.Category)

	for i, src := range srcs {
		published := "unknown"
		if src.PublishedAt != nil {
			published = src.PublishedAt.UTC().Format(time.RFC3339)
		}
		text := src.Text
		if len(text) > perSourceTextCap {
			text = text[:perSourceTextCap] + "..."
		}
		fmt.Fprintf(&b, "\n--- Source %d: %s (credibility %d/10, published %s) ---\nTitle: %s\n%s\n",
			i+1, src.SourceName, src.Credibility, published, src.Title, text)
	}

	b.WriteString(`
Respond with ONLY this JSON object, no prose:
{"title": "...", "summary_bullets": ["...", "...", "...", "..."], "content_standard": "...", "content_b2": "...", "keywords": ["..."], "category": "..."}`)

	return b.String()
}
