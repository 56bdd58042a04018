// Package fetch retrieves full article bodies for cluster members.
//
// Two tiers: a direct (optionally proxy-unlocked) HTML fetch cleaned with
// goquery, then a reader-API fallback that returns pre-cleaned markdown.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"newsmesh/internal/config"
	"newsmesh/internal/logger"
)

const (
	// MinTextLength is the minimum body size for a usable extraction.
	MinTextLength = 200
	// MaxTextLength caps the stored body; longer bodies are cut with a marker.
	MaxTextLength = 15000
	// TruncationMarker is appended when a body is cut at MaxTextLength.
	TruncationMarker = "\n[content truncated]"
)

// articleSelectors are tried in order when locating the main content block.
var articleSelectors = []string{
	"article",
	"[role='main']",
	".article-body", ".article-content", ".story-body", ".post-content",
	".entry-content", ".main-content",
	"main",
}

// FullText is a successfully extracted article body.
type FullText struct {
	Title     string
	Text      string
	OGImage   string
	Truncated bool
}

// Fetcher retrieves and cleans article pages with bounded fan-out.
type Fetcher struct {
	client    *http.Client
	userAgent string
	proxyURL  string
	readerURL string
	readerKey string
	workers   int
}

// NewFetcher creates a full-text fetcher from config.
func NewFetcher(cfg config.FullText, userAgent string) *Fetcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	return &Fetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		userAgent: userAgent,
		proxyURL:  cfg.ProxyURL,
		readerURL: strings.TrimSuffix(cfg.ReaderAPIURL, "/"),
		readerKey: cfg.ReaderAPIKey,
		workers:   workers,
	}
}

// FetchAll retrieves full text for every unique URL, at most once each, with a
// bounded worker pool. Failed URLs are absent from the result and counted in
// the returned failure total.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) (map[string]FullText, int) {
	unique := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		unique = append(unique, u)
	}

	var (
		mu       sync.Mutex
		failures int
	)
	results := make(map[string]FullText, len(unique))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, u := range unique {
		g.Go(func() error {
			ft, err := f.Fetch(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Debug("Full-text fetch failed", "url", u, "error", err.Error())
				failures++
				return nil
			}
			results[u] = ft
			return nil
		})
	}
	_ = g.Wait()
	return results, failures
}

// Fetch retrieves one article body, trying the HTML tier first and the reader
// API second.
func (f *Fetcher) Fetch(ctx context.Context, articleURL string) (FullText, error) {
	ft, htmlErr := f.fetchHTML(ctx, articleURL)
	if htmlErr == nil {
		return ft, nil
	}
	if f.readerURL == "" {
		return FullText{}, htmlErr
	}
	ft, readerErr := f.fetchReader(ctx, articleURL)
	if readerErr != nil {
		return FullText{}, fmt.Errorf("html tier: %v; reader tier: %w", htmlErr, readerErr)
	}
	return ft, nil
}

// fetchHTML is tier one: GET the page (through the unlocker proxy when
// configured), strip chrome, and join paragraph text from the most
// article-like container.
func (f *Fetcher) fetchHTML(ctx context.Context, articleURL string) (FullText, error) {
	target := articleURL
	if f.proxyURL != "" {
		target = f.proxyURL + "?url=" + url.QueryEscape(articleURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return FullText{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return FullText{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return FullText{}, fmt.Errorf("status %d fetching %s", resp.StatusCode, articleURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return FullText{}, err
	}

	doc.Find("script, style, nav, aside, header, footer, form, iframe, noscript").Remove()

	text := extractParagraphs(doc)
	if len(text) < MinTextLength {
		return FullText{}, fmt.Errorf("extracted %d chars from %s, below minimum", len(text), articleURL)
	}

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	ft := FullText{
		Title:   title,
		OGImage: extractPageImage(doc),
	}
	ft.Text, ft.Truncated = capText(text)
	return ft, nil
}

// extractParagraphs joins <p> text from the first matching article container,
// falling back to all body paragraphs.
func extractParagraphs(doc *goquery.Document) string {
	for _, selector := range articleSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		if text := joinParagraphs(container); len(text) >= MinTextLength {
			return text
		}
	}
	return joinParagraphs(doc.Find("body"))
}

func joinParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

// extractPageImage picks the page's best image: og:image, twitter:image, then
// a large in-article <img>.
func extractPageImage(doc *goquery.Document) string {
	if u, ok := doc.Find("meta[property='og:image']").Attr("content"); ok && u != "" {
		return u
	}
	if u, ok := doc.Find("meta[name='twitter:image']").Attr("content"); ok && u != "" {
		return u
	}
	var best string
	doc.Find("article img, [role='main'] img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return true
		}
		if w, ok := img.Attr("width"); ok {
			if width, err := strconv.Atoi(w); err == nil && width < 400 {
				return true
			}
		}
		best = src
		return false
	})
	return best
}

// capText enforces the body length ceiling.
func capText(text string) (string, bool) {
	if len(text) <= MaxTextLength {
		return text, false
	}
	return text[:MaxTextLength] + TruncationMarker, true
}

// fetchReader is tier two: a reader API that returns cleaned markdown.
func (f *Fetcher) fetchReader(ctx context.Context, articleURL string) (FullText, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.readerURL+"/"+articleURL, nil)
	if err != nil {
		return FullText{}, err
	}
	if f.readerKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.readerKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FullText{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return FullText{}, fmt.Errorf("reader API status %d for %s", resp.StatusCode, articleURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return FullText{}, err
	}

	markdown := strings.TrimSpace(string(body))
	title := ""
	if strings.HasPrefix(markdown, "# ") {
		if nl := strings.IndexByte(markdown, '\n'); nl > 0 {
			title = strings.TrimSpace(markdown[2:nl])
			markdown = strings.TrimSpace(markdown[nl:])
		}
	}
	if len(markdown) < MinTextLength {
		return FullText{}, fmt.Errorf("reader API returned %d chars for %s, below minimum", len(markdown), articleURL)
	}

	ft := FullText{Title: title}
	ft.Text, ft.Truncated = capText(markdown)
	return ft, nil
}
