package cluster

import (
	"sort"
	"strings"
)

// stopwords are excluded from significant-token sets. English-only; the
// catalogue is English-language feeds.
var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "again": true, "against": true,
	"all": true, "also": true, "amid": true, "among": true, "an": true,
	"and": true, "are": true, "as": true, "at": true, "be": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "but": true,
	"by": true, "can": true, "could": true, "did": true, "do": true,
	"does": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "here": true, "how": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "more": true, "most": true, "new": true, "no": true,
	"not": true, "now": true, "of": true, "off": true, "on": true,
	"once": true, "only": true, "or": true, "other": true, "our": true,
	"out": true, "over": true, "own": true, "said": true, "same": true,
	"say": true, "says": true, "she": true, "should": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"too": true, "under": true, "until": true, "up": true, "very": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// SignificantTokens returns the lowercase tokens of length >3 left after
// stopword removal, as a set.
func SignificantTokens(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(word) > 3 && !stopwords[word] {
			tokens[word] = true
		}
	}
	return tokens
}

// Jaccard computes |A ∩ B| / |A ∪ B| over two token sets. Two empty sets have
// zero overlap by definition here; they carry no evidence of sameness.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// ExtractKeywords returns up to limit significant tokens from the text,
// longest first so the most specific terms survive the cap.
func ExtractKeywords(text string, limit int) []string {
	set := SignificantTokens(text)
	keywords := make([]string, 0, len(set))
	for token := range set {
		keywords = append(keywords, token)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}
		return keywords[i] < keywords[j]
	})
	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// mergeKeywords unions existing cluster keywords with incoming ones, keeping
// the existing order, and caps the result.
func mergeKeywords(existing, incoming []string, limit int) []string {
	seen := map[string]bool{}
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, lists := range [][]string{existing, incoming} {
		for _, k := range lists {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, k)
		}
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
