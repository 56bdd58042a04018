// Package urlutil canonicalises article URLs and gates out already-ingested ones.
package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during normalization. They carry
// campaign attribution, not article identity.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"source":       true,
	"fbclid":       true,
	"gclid":        true,
	"_ga":          true,
	"mc_cid":       true,
	"mc_eid":       true,
}

// Normalize canonicalises a URL so that the same article always maps to the
// same string: lower-case host, no leading www., tracking parameters removed,
// fragment dropped, remaining query keys sorted by name.
//
// Unparseable or host-less input returns an error; callers fall back to
// FallbackIdentity for a stable identity.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	u.Host = host
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if trackingParams[strings.ToLower(key)] {
			q.Del(key)
		}
	}
	u.RawQuery = sortedEncode(q)

	// Trailing slash on a path is not identity-bearing.
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// sortedEncode encodes query values with keys in name order. url.Values.Encode
// already sorts by key; kept explicit so the ordering contract is visible.
func sortedEncode(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// FallbackIdentity derives a stable identity for an article whose link cannot
// be normalized meaningfully, hashing link plus title.
func FallbackIdentity(link, title string) string {
	sum := sha256.Sum256([]byte(link + "\x00" + title))
	return "hash:" + hex.EncodeToString(sum[:16])
}
