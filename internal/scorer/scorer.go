// Package scorer batch-scores candidate articles for admission into clustering.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/llm"
	"newsmesh/internal/logger"
)

// Generator is the slice of the LLM client the scorer needs.
type Generator interface {
	GenerateJSON(ctx context.Context, req llm.GenerateRequest, v any) error
}

// Verdict is the scoring outcome for one article.
type Verdict struct {
	ID       string
	Score    int
	Category string
	Admitted bool
}

// Scorer applies one of the two admission contracts to article batches.
type Scorer struct {
	gen       Generator
	contract  string
	threshold int
	batchSize int
}

// scoredItem is the per-article element of the LLM response.
type scoredItem struct {
	ID       string `json:"id"`
	Score    int    `json:"score"`
	Category string `json:"category"`
}

// candidate is the per-article element of the LLM request.
type candidate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Category    string `json:"category"`
}

// categories is the closed set of coarse labels the scorer may assign.
var categories = map[string]bool{
	"world": true, "business": true, "technology": true, "science": true,
	"health": true, "politics": true, "sport": true, "culture": true,
}

// New creates a scorer for the configured admission contract.
func New(gen Generator, cfg config.Scoring) *Scorer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 30
	}
	return &Scorer{
		gen:       gen,
		contract:  cfg.Contract,
		threshold: cfg.Threshold,
		batchSize: batchSize,
	}
}

// neutralScore is assigned when a batch fails persistently. It sits mid-range
// so downstream analytics are not skewed, and the article is still rejected.
func (s *Scorer) neutralScore() int {
	if s.contract == "B" {
		return 500
	}
	return 50
}

// maxScore is the top of the active contract's range.
func (s *Scorer) maxScore() int {
	if s.contract == "B" {
		return 1000
	}
	return 100
}

// ScoreAll scores every pending article and returns one verdict per input.
// Articles without an image are auto-rejected before any LLM call.
func (s *Scorer) ScoreAll(ctx context.Context, articles []core.SourceArticle) []Verdict {
	verdicts := make([]Verdict, 0, len(articles))
	var scorable []core.SourceArticle

	for _, a := range articles {
		if a.ImageURL == "" {
			verdicts = append(verdicts, Verdict{ID: a.ID, Score: 0, Category: a.Category, Admitted: false})
			continue
		}
		scorable = append(scorable, a)
	}

	for start := 0; start < len(scorable); start += s.batchSize {
		end := min(start+s.batchSize, len(scorable))
		verdicts = append(verdicts, s.scoreBatch(ctx, scorable[start:end])...)
	}
	return verdicts
}

// scoreBatch sends one batch to the LLM and maps the response back onto the
// inputs. A failed batch yields neutral-score rejections for every member so
// downstream stages see consistent state.
func (s *Scorer) scoreBatch(ctx context.Context, batch []core.SourceArticle) []Verdict {
	candidates := make([]candidate, len(batch))
	byID := make(map[string]core.SourceArticle, len(batch))
	for i, a := range batch {
		candidates[i] = candidate{
			ID:          a.ID,
			Title:       a.Title,
			Description: truncate(a.Description, 500),
			Source:      a.SourceName,
			Category:    a.Category,
		}
		byID[a.ID] = a
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		return s.failBatch(batch)
	}

	var items []scoredItem
	err = s.gen.GenerateJSON(ctx, llm.GenerateRequest{
		Prompt:      s.prompt(string(payload)),
		Temperature: 0.2,
		MaxTokens:   4096,
	}, &items)
	if err != nil {
		logger.Warn("Admission scoring batch failed", "size", len(batch), "error", err.Error())
		return s.failBatch(batch)
	}

	verdicts := make([]Verdict, 0, len(batch))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		a, ok := byID[item.ID]
		if !ok || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		verdicts = append(verdicts, s.verdictFor(a, item))
	}

	// Items the model dropped (truncation, id mismatch) get the failure path.
	for _, a := range batch {
		if !seen[a.ID] {
			verdicts = append(verdicts, Verdict{ID: a.ID, Score: s.neutralScore(), Category: a.Category, Admitted: false})
		}
	}
	return verdicts
}

func (s *Scorer) verdictFor(a core.SourceArticle, item scoredItem) Verdict {
	score := item.Score
	if score < 0 || score > s.maxScore() {
		score = s.neutralScore()
	}
	category := strings.ToLower(strings.TrimSpace(item.Category))
	if !categories[category] {
		category = a.Category
	}
	return Verdict{
		ID:       a.ID,
		Score:    score,
		Category: category,
		Admitted: score >= s.threshold,
	}
}

func (s *Scorer) failBatch(batch []core.SourceArticle) []Verdict {
	verdicts := make([]Verdict, len(batch))
	for i, a := range batch {
		verdicts[i] = Verdict{ID: a.ID, Score: s.neutralScore(), Category: a.Category, Admitted: false}
	}
	return verdicts
}

func (s *Scorer) prompt(payload string) string {
	if s.contract == "B" {
		return fmt.Sprintf(contractBPromptTemplate, payload)
	}
	return fmt.Sprintf(contractAPromptTemplate, payload)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
