package jsonx

import (
	"testing"
)

func TestUnmarshalCleanJSON(t *testing.T) {
	var out map[string]int
	if err := Unmarshal(`{"score": 82}`, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["score"] != 82 {
		t.Errorf("expected score 82, got %d", out["score"])
	}
}

func TestUnmarshalMarkdownFences(t *testing.T) {
	raw := "```json\n{\"score\": 91, \"category\": \"world\"}\n```"
	var out struct {
		Score    int    `json:"score"`
		Category string `json:"category"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Score != 91 || out.Category != "world" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestUnmarshalSurroundingProse(t *testing.T) {
	raw := `Here are the scores you asked for:

{"id": "a1", "score": 75}

Let me know if you need anything else.`
	var out struct {
		ID    string `json:"id"`
		Score int    `json:"score"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.ID != "a1" || out.Score != 75 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestUnmarshalProseThenFencedArray(t *testing.T) {
	raw := "Sure! Here's the JSON:\n```\n[{\"id\":\"x\"},{\"id\":\"y\"}]\n```\nDone."
	var out []struct {
		ID string `json:"id"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out) != 2 || out[0].ID != "x" || out[1].ID != "y" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestUnmarshalTruncatedArray(t *testing.T) {
	// Cut off mid third object: the two complete objects must survive.
	raw := `[{"id":"a","score":80},{"id":"b","score":72},{"id":"c","sco`
	var out []struct {
		ID    string `json:"id"`
		Score int    `json:"score"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 recovered objects, got %d", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("unexpected ids: %+v", out)
	}
}

func TestUnmarshalTruncatedFencedArray(t *testing.T) {
	raw := "```json\n[{\"id\":\"a\"},{\"id\":\"b\"},{\"id\":"
	var out []struct {
		ID string `json:"id"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 recovered objects, got %d", len(out))
	}
}

func TestUnmarshalNestedBrackets(t *testing.T) {
	raw := `note: {"points": [{"label": "Q1", "value": 1.5}, {"label": "Q2", "value": 2.0}], "source": "IMF"}`
	var out struct {
		Points []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
		} `json:"points"`
		Source string `json:"source"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out.Points) != 2 || out.Source != "IMF" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestUnmarshalStringWithBrackets(t *testing.T) {
	raw := `{"title": "Markets {mostly} up [again]", "score": 5}`
	var out struct {
		Title string `json:"title"`
		Score int    `json:"score"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Title != "Markets {mostly} up [again]" {
		t.Errorf("unexpected title: %q", out.Title)
	}
}

func TestUnmarshalNoJSON(t *testing.T) {
	var out map[string]any
	if err := Unmarshal("I could not produce any structured output, sorry.", &out); err == nil {
		t.Error("expected error for input without JSON")
	}
}

func TestExtractEmptyInput(t *testing.T) {
	if got := Extract(""); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}
