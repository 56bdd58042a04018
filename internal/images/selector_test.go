package images

import "testing"

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select(nil); ok {
		t.Error("no candidates should yield no selection")
	}
}

func TestSelectFilters(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
	}{
		{"tracking host", Candidate{URL: "https://pixel.example.com/img.jpg", SourceName: "Reuters"}},
		{"ad host", Candidate{URL: "https://ads.example.com/banner.jpg", SourceName: "Reuters"}},
		{"gif format", Candidate{URL: "https://cdn.example.com/anim.gif", SourceName: "Reuters"}},
		{"svg format", Candidate{URL: "https://cdn.example.com/logo.svg", SourceName: "Reuters"}},
		{"too small", Candidate{URL: "https://cdn.example.com/a.jpg", Width: 300, Height: 200, SourceName: "Reuters"}},
		{"extreme aspect", Candidate{URL: "https://cdn.example.com/b.jpg", Width: 2000, Height: 400, SourceName: "Reuters"}},
		{"empty url", Candidate{SourceName: "Reuters"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Select([]Candidate{tt.c}); ok {
				t.Errorf("candidate should have been filtered: %+v", tt.c)
			}
		})
	}
}

func TestSelectUnknownDimensionsPass(t *testing.T) {
	c := Candidate{URL: "https://cdn.example.com/a.jpg", SourceName: "Reuters", ArticleScore: 80, ScoreCeiling: 100}
	if _, ok := Select([]Candidate{c}); !ok {
		t.Error("unknown dimensions must not disqualify a candidate")
	}
}

func TestSelectPrefersPremiumWideImage(t *testing.T) {
	premium := Candidate{
		URL: "https://cdn.reuters.com/lead.jpg", Width: 1600, Height: 900,
		SourceName: "Reuters", ArticleScore: 85, ScoreCeiling: 100,
	}
	modest := Candidate{
		URL: "https://cdn.blogspot.com/photo.png", Width: 640, Height: 480,
		SourceName: "Some Blog", ArticleScore: 72, ScoreCeiling: 100,
	}
	got, ok := Select([]Candidate{modest, premium})
	if !ok {
		t.Fatal("expected a selection")
	}
	if got.URL != premium.URL {
		t.Errorf("selected %q, want premium 16:9 image", got.URL)
	}
}

func TestSelectDeterministicTieBreak(t *testing.T) {
	a := Candidate{URL: "https://cdn.example.com/a.jpg", Width: 1600, Height: 900, SourceName: "AP News", ArticleScore: 80, ScoreCeiling: 100}
	b := Candidate{URL: "https://cdn.example.com/b.jpg", Width: 1600, Height: 900, SourceName: "BBC News", ArticleScore: 80, ScoreCeiling: 100}

	first, _ := Select([]Candidate{a, b})
	second, _ := Select([]Candidate{b, a})
	if first.URL != second.URL {
		t.Error("selection must be order-independent")
	}
	if first.SourceName != "AP News" {
		t.Errorf("tie should break by source name, got %s", first.SourceName)
	}
}

func TestScoreNormalizesContractB(t *testing.T) {
	a := Candidate{URL: "https://cdn.example.com/a.jpg", SourceName: "Other", ArticleScore: 900, ScoreCeiling: 1000}
	b := Candidate{URL: "https://cdn.example.com/b.jpg", SourceName: "Other", ArticleScore: 90, ScoreCeiling: 100}
	if score(a) != score(b) {
		t.Errorf("equivalent relative scores should normalize equally: %d vs %d", score(a), score(b))
	}
}
