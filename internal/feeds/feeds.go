// Package feeds fetches and parses the RSS/Atom catalogue into raw articles.
package feeds

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/logger"
	"newsmesh/internal/urlutil"
)

// KnownURLGate lets the fetcher stop paging a feed at the first entry that has
// already been ingested. RSS order is newest-first, so everything past a known
// entry can be assumed known too.
type KnownURLGate interface {
	IsNew(ctx context.Context, normalizedURL string) bool
}

// Fetcher pulls raw articles from every catalogue source in parallel.
type Fetcher struct {
	parser     *gofeed.Parser
	gate       KnownURLGate
	workers    int
	maxPerFeed int
}

// Result is the outcome of one fetch pass over the catalogue.
type Result struct {
	Articles   []core.RawArticle
	FeedErrors int
}

// NewFetcher creates a feed fetcher. The gate may be nil, in which case every
// entry up to the per-feed cap is emitted.
func NewFetcher(cfg config.Feeds, gate KnownURLGate) *Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 30
	}
	maxPerFeed := cfg.MaxPerFeed
	if maxPerFeed <= 0 {
		maxPerFeed = 10
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if cfg.UserAgent != "" {
		parser.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		parser:     parser,
		gate:       gate,
		workers:    workers,
		maxPerFeed: maxPerFeed,
	}
}

// FetchAll fans out across sources with a bounded worker pool. Per-source
// failures are isolated: the failing source contributes no articles and a
// counter tick, and the pass continues.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []core.Source) Result {
	var (
		mu     sync.Mutex
		result Result
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for _, src := range srcs {
		g.Go(func() error {
			articles, err := f.fetchOne(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Feed fetch failed", "source", src.Name, "error", err.Error())
				result.FeedErrors++
				return nil
			}
			result.Articles = append(result.Articles, articles...)
			return nil
		})
	}

	_ = g.Wait()
	return result
}

// fetchOne retrieves and parses a single feed, emitting up to maxPerFeed of
// its newest entries.
func (f *Fetcher) fetchOne(ctx context.Context, src core.Source) ([]core.RawArticle, error) {
	feed, err := f.parser.ParseURLWithContext(src.FeedURL, ctx)
	if err != nil {
		return nil, err
	}

	var articles []core.RawArticle
	for _, item := range feed.Items {
		if len(articles) >= f.maxPerFeed {
			break
		}
		if item == nil || item.Link == "" || item.Title == "" {
			continue
		}

		// An unparseable link skips the gate check; ingest dedups it by
		// fallback identity instead.
		if normalized, err := urlutil.Normalize(item.Link); err == nil {
			if f.gate != nil && !f.gate.IsNew(ctx, normalized) {
				// Newest-first feed: older entries are already ingested.
				break
			}
		}

		articles = append(articles, itemToRawArticle(src, item))
	}
	return articles, nil
}

// itemToRawArticle converts a parsed feed item into the pipeline's raw record.
func itemToRawArticle(src core.Source, item *gofeed.Item) core.RawArticle {
	raw := core.RawArticle{
		SourceName:  src.Name,
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(stripHTML(item.Description)),
		Link:        strings.TrimSpace(item.Link),
		GUID:        item.GUID,
		ImageURL:    extractImage(item),
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		raw.PublishedAt = &t
	} else if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		raw.PublishedAt = &t
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		raw.Author = item.Authors[0].Name
	}
	return raw
}

// extractImage picks the item image in order: media:content, media:thumbnail,
// image enclosure, first <img> in the content HTML.
func extractImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, html := range []string{item.Content, item.Description} {
		if img := firstImageInHTML(html); img != "" {
			return img
		}
	}
	return ""
}

// firstImageInHTML returns the src of the first <img> tag in an HTML snippet.
func firstImageInHTML(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// stripHTML flattens an HTML description down to its text.
func stripHTML(html string) string {
	if !strings.ContainsAny(html, "<>") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
