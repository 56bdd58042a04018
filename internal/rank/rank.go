// Package rank assigns the reader-facing display score and tags to a
// synthesized article.
package rank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"newsmesh/internal/llm"
	"newsmesh/internal/logger"
)

const (
	// DefaultDisplayScore is used whenever the model's score is unusable.
	DefaultDisplayScore = 750

	maxCountries = 3
	maxTopics    = 3
	maxAnchors   = 8
)

// Generator is the slice of the LLM client the ranker needs.
type Generator interface {
	GenerateJSON(ctx context.Context, req llm.GenerateRequest, v any) error
}

// Anchor is a recently scored article used to calibrate the display scorer.
type Anchor struct {
	Title string
	Score int
}

// Ranker produces display scores and tags.
type Ranker struct {
	gen Generator
}

// New creates a ranker.
func New(gen Generator) *Ranker {
	return &Ranker{gen: gen}
}

// ScoreDisplay rates an article 0-1000 for display priority, calibrated
// against reference anchors. Unusable outputs fall back to the default so a
// scoring hiccup never blocks publication.
func (r *Ranker) ScoreDisplay(ctx context.Context, title string, bullets []string, anchors []Anchor) int {
	var out struct {
		Score int `json:"score"`
	}
	err := r.gen.GenerateJSON(ctx, llm.GenerateRequest{
		Prompt:      displayPrompt(title, bullets, anchors),
		Temperature: 0.2,
		MaxTokens:   256,
		JSONOutput:  true,
	}, &out)
	if err != nil {
		logger.Warn("Display scoring failed, using default", "title", title, "error", err.Error())
		return DefaultDisplayScore
	}
	if out.Score < 0 || out.Score > 1000 {
		logger.Warn("Display score out of range, using default", "title", title, "score", out.Score)
		return DefaultDisplayScore
	}
	return out.Score
}

// Tag produces country and topic codes from the closed vocabularies. Unknown
// codes are dropped; an article always leaves with at least one topic.
func (r *Ranker) Tag(ctx context.Context, title string, bullets []string, category string) (countries, topics []string) {
	var out struct {
		Countries []string `json:"countries"`
		Topics    []string `json:"topics"`
	}
	err := r.gen.GenerateJSON(ctx, llm.GenerateRequest{
		Prompt:      tagPrompt(title, bullets, category),
		Temperature: 0.1,
		MaxTokens:   256,
		JSONOutput:  true,
	}, &out)
	if err != nil {
		logger.Warn("Tagging failed, using category fallback", "title", title, "error", err.Error())
		return nil, []string{fallbackTopic(category)}
	}

	countries = filterVocabulary(out.Countries, countryVocabulary, maxCountries)
	topics = filterVocabulary(out.Topics, topicVocabulary, maxTopics)
	if len(topics) == 0 {
		topics = []string{fallbackTopic(category)}
	}
	return countries, topics
}

// filterVocabulary lowercases, deduplicates, and keeps only known codes, up
// to the cap.
func filterVocabulary(codes []string, vocab map[string]bool, limit int) []string {
	var kept []string
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if !vocab[code] || seen[code] {
			continue
		}
		seen[code] = true
		kept = append(kept, code)
		if len(kept) == limit {
			break
		}
	}
	return kept
}

func displayPrompt(title string, bullets []string, anchors []Anchor) string {
	var b strings.Builder
	b.WriteString(`Rate this news article's display priority from 0 to 1000.

Tiers:
- 900-1000: must-know globally (wars starting, leaders falling, market crashes)
- 850-899: very important international news
- 800-849: important developments most readers should see
- 750-799: solid stories worth reading
- 700-749: lower-priority or niche stories
- below 700: routine coverage

`)
	if len(anchors) > 0 {
		b.WriteString("Recently scored articles for calibration:\n")
		n := len(anchors)
		if n > maxAnchors {
			n = maxAnchors
		}
		for _, a := range anchors[:n] {
			fmt.Fprintf(&b, "- %d: %s\n", a.Score, a.Title)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Article: %s\n", title)
	for _, bullet := range bullets {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	b.WriteString(`
Respond with ONLY: {"score": <0-1000>}`)
	return b.String()
}

func tagPrompt(title string, bullets []string, category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tag this %s article with country and topic codes.\n\nArticle: %s\n", category, title)
	for _, bullet := range bullets {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	fmt.Fprintf(&b, "\nAllowed countries (0-3, only where the story happens or is about): %s\n", vocabList(countryVocabulary))
	fmt.Fprintf(&b, "Allowed topics (1-3): %s\n", vocabList(topicVocabulary))
	b.WriteString(`
Respond with ONLY: {"countries": [...], "topics": [...]}`)
	return b.String()
}

func vocabList(vocab map[string]bool) string {
	codes := make([]string, 0, len(vocab))
	for code := range vocab {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}
