// Package enrich attaches optional display components to a synthesized
// article: a timeline, key details, a numeric graph, and a map anchor.
//
// Enrichment is best-effort. The model runs with search grounding so numbers
// and dates can be verified, and each component is validated independently;
// a component that fails its schema is dropped, never the article.
package enrich

import (
	"context"
	"strings"

	"newsmesh/internal/core"
	"newsmesh/internal/llm"
	"newsmesh/internal/logger"
)

const (
	maxTimelineEvents  = 4
	minTimelineEvents  = 2
	maxEventWords      = 14
	requiredDetails    = 3
	maxLabelWords      = 3
	maxDetailWords     = 8
	minGraphPoints     = 4
	contentPromptLimit = 8000
)

// Generator is the slice of the LLM client the enricher needs.
type Generator interface {
	GenerateJSON(ctx context.Context, req llm.GenerateRequest, v any) error
}

// Enrichment holds whichever components survived validation. Any field may
// be empty or nil.
type Enrichment struct {
	Timeline []core.TimelineEvent `json:"timeline"`
	Details  []string             `json:"details"`
	Graph    *core.Graph          `json:"graph"`
	Map      *core.MapAnchor      `json:"map"`
}

// Enricher generates display components for published articles.
type Enricher struct {
	gen Generator
}

// New creates an enricher.
func New(gen Generator) *Enricher {
	return &Enricher{gen: gen}
}

// Enrich asks the model for all four components in one grounded call and
// keeps only the ones that validate. A generation failure yields an empty
// enrichment, not an error: the article publishes without components.
func (e *Enricher) Enrich(ctx context.Context, clusterID string, s core.Synthesis) Enrichment {
	var raw Enrichment
	err := e.gen.GenerateJSON(ctx, llm.GenerateRequest{
		Prompt:      buildPrompt(s),
		Temperature: 0.2,
		MaxTokens:   2048,
		Grounded:    true,
	}, &raw)
	if err != nil {
		logger.Warn("Enrichment generation failed, publishing without components", "cluster", clusterID, "error", err.Error())
		return Enrichment{}
	}

	out := Enrichment{}
	if err := validateTimeline(raw.Timeline); err == nil {
		out.Timeline = raw.Timeline
	} else if len(raw.Timeline) > 0 {
		logger.Debug("Dropping timeline component", "cluster", clusterID, "error", err.Error())
	}
	if err := validateDetails(raw.Details); err == nil {
		out.Details = raw.Details
	} else if len(raw.Details) > 0 {
		logger.Debug("Dropping details component", "cluster", clusterID, "error", err.Error())
	}
	if err := validateGraph(raw.Graph); err == nil {
		out.Graph = raw.Graph
	} else if raw.Graph != nil {
		logger.Debug("Dropping graph component", "cluster", clusterID, "error", err.Error())
	}
	if err := validateMap(raw.Map); err == nil {
		out.Map = raw.Map
	} else if raw.Map != nil {
		logger.Debug("Dropping map component", "cluster", clusterID, "error", err.Error())
	}
	return out
}

func buildPrompt(s core.Synthesis) string {
	content := s.ContentStandard
	if len(content) > contentPromptLimit {
		content = content[:contentPromptLimit]
	}

	var b strings.Builder
	b.WriteString(`Generate display components for this news article. Use search to verify every number, date, and location before including it. Omit any component you cannot verify (use null or an empty array) rather than guessing.

Article: `)
	b.WriteString(s.Title)
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString(`

Components:
- timeline: 2-4 dated events leading to or following this story, chronological, each event description at most 14 words.
- details: exactly 3 "Label: value" facts (e.g. "Magnitude: 7.4"), label 1-3 words, label and value together at most 8 words.
- graph: one numeric series with at least 4 points and a named source, only if real verifiable numbers exist. Type is "line" or "bar".
- map: the single most newsworthy specific location with real coordinates and a short reason, only for stories anchored to a place.

Respond with ONLY this JSON object:
{"timeline": [{"date": "...", "event": "..."}], "details": ["Label: value"], "graph": {"title": "...", "type": "line", "unit": "...", "points": [{"label": "...", "value": 0}], "source": "..."}, "map": {"name": "...", "city": "...", "country": "...", "reason": "...", "latitude": 0, "longitude": 0}}`)
	return b.String()
}
