package enrich

import (
	"fmt"
	"strings"

	"newsmesh/internal/core"
)

func validateTimeline(events []core.TimelineEvent) error {
	if len(events) < minTimelineEvents || len(events) > maxTimelineEvents {
		return fmt.Errorf("timeline has %d events, want %d-%d", len(events), minTimelineEvents, maxTimelineEvents)
	}
	for i, ev := range events {
		if strings.TrimSpace(ev.Date) == "" {
			return fmt.Errorf("timeline event %d has no date", i+1)
		}
		if n := len(strings.Fields(ev.Event)); n == 0 || n > maxEventWords {
			return fmt.Errorf("timeline event %d has %d words, want 1-%d", i+1, n, maxEventWords)
		}
	}
	return nil
}

func validateDetails(details []string) error {
	if len(details) != requiredDetails {
		return fmt.Errorf("got %d details, want exactly %d", len(details), requiredDetails)
	}
	for i, d := range details {
		label, value, ok := strings.Cut(d, ":")
		if !ok || strings.TrimSpace(label) == "" || strings.TrimSpace(value) == "" {
			return fmt.Errorf("detail %d is not a label:value pair", i+1)
		}
		labelWords := len(strings.Fields(label))
		if labelWords > maxLabelWords {
			return fmt.Errorf("detail %d label has %d words, want 1-%d", i+1, labelWords, maxLabelWords)
		}
		if total := labelWords + len(strings.Fields(value)); total > maxDetailWords {
			return fmt.Errorf("detail %d has %d words in total, want at most %d", i+1, total, maxDetailWords)
		}
	}
	return nil
}

func validateGraph(g *core.Graph) error {
	if g == nil {
		return fmt.Errorf("no graph")
	}
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("graph has no title")
	}
	if g.Type != "line" && g.Type != "bar" {
		return fmt.Errorf("graph type %q is not line or bar", g.Type)
	}
	if len(g.Points) < minGraphPoints {
		return fmt.Errorf("graph has %d points, want at least %d", len(g.Points), minGraphPoints)
	}
	for i, p := range g.Points {
		if strings.TrimSpace(p.Label) == "" {
			return fmt.Errorf("graph point %d has no label", i+1)
		}
	}
	if strings.TrimSpace(g.Source) == "" {
		return fmt.Errorf("graph has no source citation")
	}
	return nil
}

func validateMap(m *core.MapAnchor) error {
	if m == nil {
		return fmt.Errorf("no map anchor")
	}
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Reason) == "" {
		return fmt.Errorf("map anchor needs a name and a reason")
	}
	if m.Latitude < -90 || m.Latitude > 90 || m.Longitude < -180 || m.Longitude > 180 {
		return fmt.Errorf("coordinates (%f, %f) out of range", m.Latitude, m.Longitude)
	}
	if m.Latitude == 0 && m.Longitude == 0 {
		return fmt.Errorf("null island coordinates")
	}
	return nil
}
