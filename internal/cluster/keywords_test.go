package cluster

import (
	"math"
	"testing"
)

func TestSignificantTokens(t *testing.T) {
	got := SignificantTokens("The ECB raises rates to 4.5% after a long meeting")
	for _, want := range []string{"raises", "rates", "long", "meeting"} {
		if !got[want] {
			t.Errorf("expected token %q in %v", want, got)
		}
	}
	// "The", "to", "a", "after" are stopwords; "ECB" is only 3 characters.
	for _, absent := range []string{"the", "to", "after", "ecb"} {
		if got[absent] {
			t.Errorf("token %q should have been filtered", absent)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := map[string]bool{"rates": true, "central": true, "bank": true}
	b := map[string]bool{"rates": true, "central": true, "markets": true}
	got := Jaccard(a, b)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Jaccard = %f, want 0.5", got)
	}
	if Jaccard(a, map[string]bool{}) != 0 {
		t.Error("empty set overlap must be 0")
	}
	if Jaccard(a, a) != 1 {
		t.Error("identical sets must overlap fully")
	}
}

func TestExtractKeywordsDeterministicAndCapped(t *testing.T) {
	text := "Earthquake rescue operation continues overnight near the coastal city"
	a := ExtractKeywords(text, 4)
	b := ExtractKeywords(text, 4)
	if len(a) != 4 {
		t.Fatalf("expected 4 keywords, got %v", a)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("keyword extraction must be deterministic")
		}
	}
}

func TestMergeKeywordsDedupesAndCaps(t *testing.T) {
	merged := mergeKeywords([]string{"rates", "central"}, []string{"central", "bank", "euro"}, 3)
	if len(merged) != 3 {
		t.Fatalf("expected cap of 3, got %v", merged)
	}
	if merged[0] != "rates" || merged[1] != "central" || merged[2] != "bank" {
		t.Errorf("unexpected merge order: %v", merged)
	}
}
