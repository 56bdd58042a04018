// Package sources holds the static feed catalogue the pipeline ingests from.
package sources

import "newsmesh/internal/core"

// DefaultCredibility is assumed for source names absent from the catalogue.
const DefaultCredibility = 6

// catalog is the fixed set of feeds. The set does not change at runtime; edits
// here are deployments.
var catalog = []core.Source{
	// Wires and global outlets
	{Name: "Reuters", FeedURL: "https://www.reutersagency.com/feed/?best-topics=top-news", Category: "world", Credibility: 10},
	{Name: "AP News", FeedURL: "https://rsshub.app/apnews/topics/apf-topnews", Category: "world", Credibility: 10},
	{Name: "BBC News", FeedURL: "https://feeds.bbci.co.uk/news/world/rss.xml", Category: "world", Credibility: 9},
	{Name: "The Guardian", FeedURL: "https://www.theguardian.com/world/rss", Category: "world", Credibility: 8},
	{Name: "Al Jazeera", FeedURL: "https://www.aljazeera.com/xml/rss/all.xml", Category: "world", Credibility: 7},
	{Name: "Deutsche Welle", FeedURL: "https://rss.dw.com/rdf/rss-en-all", Category: "world", Credibility: 8},
	{Name: "France 24", FeedURL: "https://www.france24.com/en/rss", Category: "world", Credibility: 7},
	{Name: "NPR", FeedURL: "https://feeds.npr.org/1001/rss.xml", Category: "world", Credibility: 8},
	{Name: "CNN", FeedURL: "http://rss.cnn.com/rss/edition_world.rss", Category: "world", Credibility: 7},
	{Name: "Sky News", FeedURL: "https://feeds.skynews.com/feeds/rss/world.xml", Category: "world", Credibility: 7},

	// Business and markets
	{Name: "CNBC", FeedURL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Category: "business", Credibility: 7},
	{Name: "Financial Times", FeedURL: "https://www.ft.com/rss/home", Category: "business", Credibility: 9},
	{Name: "The Economist", FeedURL: "https://www.economist.com/finance-and-economics/rss.xml", Category: "business", Credibility: 9},
	{Name: "Bloomberg", FeedURL: "https://feeds.bloomberg.com/markets/news.rss", Category: "business", Credibility: 9},
	{Name: "MarketWatch", FeedURL: "https://feeds.content.dowjones.io/public/rss/mw_topstories", Category: "business", Credibility: 7},
	{Name: "Business Insider", FeedURL: "https://www.businessinsider.com/rss", Category: "business", Credibility: 6},

	// Technology
	{Name: "Ars Technica", FeedURL: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology", Credibility: 8},
	{Name: "The Verge", FeedURL: "https://www.theverge.com/rss/index.xml", Category: "technology", Credibility: 7},
	{Name: "TechCrunch", FeedURL: "https://techcrunch.com/feed/", Category: "technology", Credibility: 7},
	{Name: "Wired", FeedURL: "https://www.wired.com/feed/rss", Category: "technology", Credibility: 7},
	{Name: "MIT Technology Review", FeedURL: "https://www.technologyreview.com/feed/", Category: "technology", Credibility: 8},
	{Name: "Hacker News", FeedURL: "https://hnrss.org/frontpage", Category: "technology", Credibility: 6},

	// Science and health
	{Name: "Nature", FeedURL: "https://www.nature.com/nature.rss", Category: "science", Credibility: 10},
	{Name: "Science Magazine", FeedURL: "https://www.science.org/rss/news_current.xml", Category: "science", Credibility: 10},
	{Name: "Scientific American", FeedURL: "http://rss.sciam.com/ScientificAmerican-Global", Category: "science", Credibility: 8},
	{Name: "New Scientist", FeedURL: "https://www.newscientist.com/feed/home/", Category: "science", Credibility: 7},
	{Name: "Phys.org", FeedURL: "https://phys.org/rss-feed/", Category: "science", Credibility: 7},
	{Name: "STAT News", FeedURL: "https://www.statnews.com/feed/", Category: "health", Credibility: 8},
	{Name: "Medical Xpress", FeedURL: "https://medicalxpress.com/rss-feed/", Category: "health", Credibility: 6},

	// Politics and policy
	{Name: "Politico", FeedURL: "https://www.politico.com/rss/politicopicks.xml", Category: "politics", Credibility: 7},
	{Name: "The Hill", FeedURL: "https://thehill.com/feed/", Category: "politics", Credibility: 6},
	{Name: "Foreign Policy", FeedURL: "https://foreignpolicy.com/feed/", Category: "politics", Credibility: 8},

	// Sport and culture
	{Name: "ESPN", FeedURL: "https://www.espn.com/espn/rss/news", Category: "sport", Credibility: 7},
	{Name: "BBC Sport", FeedURL: "https://feeds.bbci.co.uk/sport/rss.xml", Category: "sport", Credibility: 8},
	{Name: "Variety", FeedURL: "https://variety.com/feed/", Category: "culture", Credibility: 6},
	{Name: "Rolling Stone", FeedURL: "https://www.rollingstone.com/feed/", Category: "culture", Credibility: 6},
}

var credibilityByName map[string]int

func init() {
	credibilityByName = make(map[string]int, len(catalog))
	for _, s := range catalog {
		credibilityByName[s.Name] = s.Credibility
	}
}

// List returns the full catalogue. The returned slice is a copy; callers may
// reorder it freely.
func List() []core.Source {
	out := make([]core.Source, len(catalog))
	copy(out, catalog)
	return out
}

// Credibility returns the 1-10 reputation tier for a source name, defaulting
// to DefaultCredibility for unknown names.
func Credibility(name string) int {
	if c, ok := credibilityByName[name]; ok {
		return c
	}
	return DefaultCredibility
}
