package sources

import "testing"

func TestListReturnsCopy(t *testing.T) {
	a := List()
	if len(a) == 0 {
		t.Fatal("catalogue must not be empty")
	}
	a[0].Name = "mutated"
	b := List()
	if b[0].Name == "mutated" {
		t.Error("List must return a copy of the catalogue")
	}
}

func TestCatalogInvariants(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range List() {
		if s.Name == "" || s.FeedURL == "" || s.Category == "" {
			t.Errorf("incomplete source entry: %+v", s)
		}
		if s.Credibility < 1 || s.Credibility > 10 {
			t.Errorf("source %s credibility %d out of range [1,10]", s.Name, s.Credibility)
		}
		if seen[s.Name] {
			t.Errorf("duplicate source name %s", s.Name)
		}
		seen[s.Name] = true
	}
}

func TestCredibility(t *testing.T) {
	if got := Credibility("Reuters"); got != 10 {
		t.Errorf("Credibility(Reuters) = %d, want 10", got)
	}
	if got := Credibility("Some Unknown Blog"); got != DefaultCredibility {
		t.Errorf("Credibility(unknown) = %d, want %d", got, DefaultCredibility)
	}
}
