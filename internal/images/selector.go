// Package images picks the best image across a cluster's sources with a
// deterministic rule-based score.
package images

import (
	"net/url"
	"path"
	"strings"

	"newsmesh/internal/sources"
)

// blockedHostPrefixes are tracking and ad hosts whose images are never usable.
var blockedHostPrefixes = []string{
	"pixel.", "track.", "tracker.", "beacon.", "metrics.", "analytics.",
	"ads.", "ad.", "adserver.", "doubleclick.", "feedburner.",
	"stats.", "counter.",
}

// rejectedExtensions are formats that never make a lead image.
var rejectedExtensions = map[string]bool{
	".gif": true, ".svg": true, ".ico": true, ".bmp": true,
}

// Candidate is one image offered by a cluster member.
type Candidate struct {
	URL          string
	Width        int // 0 when unknown
	Height       int // 0 when unknown
	SourceName   string
	ArticleScore int // Admission score of the contributing article
	ScoreCeiling int // Top of the active contract's range (100 or 1000)
}

// Select filters and scores the candidates and returns the winner.
// Ties break on source name so the choice is stable across runs.
func Select(candidates []Candidate) (Candidate, bool) {
	var (
		best      Candidate
		bestScore = -1
		found     bool
	)
	for _, c := range candidates {
		if !usable(c) {
			continue
		}
		s := score(c)
		if s > bestScore || (s == bestScore && c.SourceName < best.SourceName) {
			best = c
			bestScore = s
			found = true
		}
	}
	return best, found
}

// usable applies the hard filters: blocklisted hosts, rejected formats, known
// dimensions below 400x300, aspect ratio outside [1/3, 3].
func usable(c Candidate) bool {
	if c.URL == "" {
		return false
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, prefix := range blockedHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return false
		}
	}
	if rejectedExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false
	}
	if c.Width > 0 && c.Height > 0 {
		if c.Width < 400 || c.Height < 300 {
			return false
		}
		ratio := float64(c.Width) / float64(c.Height)
		if ratio < 1.0/3.0 || ratio > 3.0 {
			return false
		}
	}
	return true
}

// score rates a usable candidate 0-100: source reputation tier, normalized
// article score, width tier, aspect closeness to 16:9, and a format bonus.
func score(c Candidate) int {
	total := 0

	switch cred := sources.Credibility(c.SourceName); {
	case cred >= 9:
		total += 30
	case cred >= 7:
		total += 15
	}

	ceiling := c.ScoreCeiling
	if ceiling <= 0 {
		ceiling = 100
	}
	normalized := c.ArticleScore * 20 / ceiling
	if normalized < 0 {
		normalized = 0
	} else if normalized > 20 {
		normalized = 20
	}
	total += normalized

	switch {
	case c.Width >= 1600:
		total += 30
	case c.Width >= 1200:
		total += 25
	case c.Width >= 800:
		total += 18
	case c.Width >= 400:
		total += 10
	}

	if c.Width > 0 && c.Height > 0 {
		ratio := float64(c.Width) / float64(c.Height)
		distance := ratio - 16.0/9.0
		if distance < 0 {
			distance = -distance
		}
		closeness := 20 - int(distance*20)
		if closeness < 0 {
			closeness = 0
		}
		total += closeness
	}

	switch ext := strings.ToLower(path.Ext(imagePath(c.URL))); ext {
	case ".webp", ".jpg", ".jpeg":
		total += 5
	case ".png":
		total += 3
	}

	return total
}

func imagePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
