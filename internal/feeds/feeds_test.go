package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
)

func mediaExtension(key, url string) map[string]map[string][]ext.Extension {
	return map[string]map[string][]ext.Extension{
		"media": {
			key: {{Name: key, Attrs: map[string]string{"url": url}}},
		},
	}
}

func TestExtractImageOrder(t *testing.T) {
	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{
			name: "media content wins",
			item: &gofeed.Item{
				Extensions: mediaExtension("content", "https://cdn.example.com/media.jpg"),
				Enclosures: []*gofeed.Enclosure{{URL: "https://cdn.example.com/enc.jpg", Type: "image/jpeg"}},
			},
			want: "https://cdn.example.com/media.jpg",
		},
		{
			name: "media thumbnail second",
			item: &gofeed.Item{
				Extensions: mediaExtension("thumbnail", "https://cdn.example.com/thumb.jpg"),
				Enclosures: []*gofeed.Enclosure{{URL: "https://cdn.example.com/enc.jpg", Type: "image/jpeg"}},
			},
			want: "https://cdn.example.com/thumb.jpg",
		},
		{
			name: "image enclosure third",
			item: &gofeed.Item{
				Enclosures: []*gofeed.Enclosure{
					{URL: "https://cdn.example.com/audio.mp3", Type: "audio/mpeg"},
					{URL: "https://cdn.example.com/enc.jpg", Type: "image/jpeg"},
				},
			},
			want: "https://cdn.example.com/enc.jpg",
		},
		{
			name: "img tag in content html",
			item: &gofeed.Item{
				Content: `<p>Text</p><img src="https://cdn.example.com/inline.png" alt="">`,
			},
			want: "https://cdn.example.com/inline.png",
		},
		{
			name: "nothing found",
			item: &gofeed.Item{Description: "plain text only"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractImage(tt.item); got != tt.want {
				t.Errorf("extractImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemToRawArticlePublishedFallback(t *testing.T) {
	published := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	src := core.Source{Name: "Reuters"}

	withPublished := itemToRawArticle(src, &gofeed.Item{
		Title: "ECB raises rates", Link: "https://reuters.com/a",
		PublishedParsed: &published, UpdatedParsed: &updated,
	})
	if withPublished.PublishedAt == nil || !withPublished.PublishedAt.Equal(published) {
		t.Errorf("published should win over updated: %v", withPublished.PublishedAt)
	}

	withUpdated := itemToRawArticle(src, &gofeed.Item{
		Title: "ECB raises rates", Link: "https://reuters.com/a",
		UpdatedParsed: &updated,
	})
	if withUpdated.PublishedAt == nil || !withUpdated.PublishedAt.Equal(updated) {
		t.Errorf("updated should be the fallback: %v", withUpdated.PublishedAt)
	}

	withNeither := itemToRawArticle(src, &gofeed.Item{Title: "t", Link: "https://reuters.com/a"})
	if withNeither.PublishedAt != nil {
		t.Error("absent publication time must stay nil")
	}
}

func TestItemToRawArticleStripsDescriptionHTML(t *testing.T) {
	raw := itemToRawArticle(core.Source{Name: "BBC News"}, &gofeed.Item{
		Title:       "Title",
		Link:        "https://bbc.co.uk/x",
		Description: "<p>First <b>bold</b> paragraph.</p>",
	})
	if raw.Description != "First bold paragraph." {
		t.Errorf("unexpected description: %q", raw.Description)
	}
}

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test Feed</title>
<item><title>Newest story</title><link>https://example.com/new?utm_source=rss</link><description>d1</description></item>
<item><title>Known story</title><link>https://example.com/known</link><description>d2</description></item>
<item><title>Ancient story</title><link>https://example.com/old</link><description>d3</description></item>
</channel></rss>`

type fixedGate struct {
	known map[string]bool
}

func (g fixedGate) IsNew(_ context.Context, u string) bool { return !g.known[u] }

func TestFetchAllEarlyExitAtKnownURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	gate := fixedGate{known: map[string]bool{"https://example.com/known": true}}
	fetcher := NewFetcher(config.Feeds{Workers: 2, MaxPerFeed: 10, FetchTimeout: 5 * time.Second}, gate)

	result := fetcher.FetchAll(context.Background(), []core.Source{
		{Name: "Example", FeedURL: srv.URL, Category: "world", Credibility: 6},
	})

	if result.FeedErrors != 0 {
		t.Fatalf("unexpected feed errors: %d", result.FeedErrors)
	}
	if len(result.Articles) != 1 {
		t.Fatalf("expected early exit after 1 article, got %d", len(result.Articles))
	}
	if result.Articles[0].Title != "Newest story" {
		t.Errorf("unexpected article: %+v", result.Articles[0])
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewFetcher(config.Feeds{Workers: 2, MaxPerFeed: 5, FetchTimeout: 2 * time.Second}, nil)
	result := fetcher.FetchAll(context.Background(), []core.Source{
		{Name: "Broken", FeedURL: srv.URL},
	})

	if result.FeedErrors != 1 {
		t.Errorf("expected 1 feed error, got %d", result.FeedErrors)
	}
	if len(result.Articles) != 0 {
		t.Errorf("failed feed must contribute no articles, got %d", len(result.Articles))
	}
}
