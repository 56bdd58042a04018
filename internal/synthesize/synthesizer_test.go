package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"newsmesh/internal/core"
	"newsmesh/internal/llm"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func validSynthesis() core.Synthesis {
	return core.Synthesis{
		Title:           "Quake Strikes Coastal Region",
		SummaryBullets:  []string{words(18), words(15), words(25), words(20)},
		ContentStandard: words(350),
		ContentB2:       words(320),
		Keywords:        []string{"earthquake", "coast"},
		Category:        "world",
	}
}

// fakeGenerator replays canned responses and records prompts.
type fakeGenerator struct {
	responses []any
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, req llm.GenerateRequest, v any) error {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return f.errs[i]
	}
	raw, err := json.Marshal(f.responses[i])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Synthesis)
		ok     bool
	}{
		{"valid", func(s *core.Synthesis) {}, true},
		{"empty title", func(s *core.Synthesis) { s.Title = " " }, false},
		{"three bullets", func(s *core.Synthesis) { s.SummaryBullets = s.SummaryBullets[:3] }, false},
		{"short bullet", func(s *core.Synthesis) { s.SummaryBullets[1] = words(14) }, false},
		{"long bullet", func(s *core.Synthesis) { s.SummaryBullets[2] = words(26) }, false},
		{"short standard body", func(s *core.Synthesis) { s.ContentStandard = words(299) }, false},
		{"long b2 body", func(s *core.Synthesis) { s.ContentB2 = words(401) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSynthesis()
			tt.mutate(&s)
			err := Validate(s)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestSynthesizeRetriesUntilValid(t *testing.T) {
	bad := validSynthesis()
	bad.ContentStandard = words(120)
	gen := &fakeGenerator{responses: []any{bad, validSynthesis()}}

	got, err := New(gen).Synthesize(context.Background(), core.Cluster{ID: "c1", Title: "Quake", Category: "world"},
		[]SourceInput{{SourceName: "Reuters", Credibility: 10, Title: "Quake hits", Text: "Full text."}})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", gen.calls)
	}
	if got.Title != "Quake Strikes Coastal Region" {
		t.Errorf("unexpected title %q", got.Title)
	}
}

func TestSynthesizeGivesUpAfterMaxAttempts(t *testing.T) {
	bad := validSynthesis()
	bad.SummaryBullets = bad.SummaryBullets[:2]
	gen := &fakeGenerator{responses: []any{bad, bad, bad, bad}}

	_, err := New(gen).Synthesize(context.Background(), core.Cluster{ID: "c1"},
		[]SourceInput{{SourceName: "Reuters", Title: "t", Text: "x"}})
	if err == nil {
		t.Fatal("expected failure when every attempt is invalid")
	}
	if gen.calls != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, gen.calls)
	}
}

func TestSynthesizeRetriesGenerationErrors(t *testing.T) {
	gen := &fakeGenerator{
		responses: []any{nil, validSynthesis()},
		errs:      []error{errors.New("rate limited"), nil},
	}
	if _, err := New(gen).Synthesize(context.Background(), core.Cluster{ID: "c1"},
		[]SourceInput{{SourceName: "AP News", Title: "t", Text: "x"}}); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
}

func TestSynthesizeRejectsEmptyClusters(t *testing.T) {
	if _, err := New(&fakeGenerator{}).Synthesize(context.Background(), core.Cluster{ID: "c1"}, nil); err == nil {
		t.Error("empty source list must error without calling the model")
	}
}

func TestPromptCarriesSourceMetadata(t *testing.T) {
	published := time.Date(2024, 10, 14, 9, 30, 0, 0, time.UTC)
	gen := &fakeGenerator{responses: []any{validSynthesis()}}

	_, err := New(gen).Synthesize(context.Background(), core.Cluster{ID: "c1", Title: "Quake", Category: "world"},
		[]SourceInput{
			{SourceName: "Reuters", Credibility: 10, Title: "Quake hits coast", Text: "Body A.", PublishedAt: &published},
			{SourceName: "Some Blog", Credibility: 6, Title: "Big quake", Text: "Body B."},
		})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{"Reuters", "credibility 10/10", "2024-10-14T09:30:00Z", "Some Blog", "published unknown"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
