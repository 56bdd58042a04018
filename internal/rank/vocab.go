package rank

// countryVocabulary is the closed set of taggable country codes. The reader
// surface only renders flags for these, so anything else is dropped.
var countryVocabulary = map[string]bool{
	"us": true, "gb": true, "de": true, "fr": true, "it": true, "es": true,
	"ru": true, "ua": true, "cn": true, "jp": true, "kr": true, "in": true,
	"pk": true, "il": true, "ir": true, "sa": true, "tr": true, "eg": true,
	"ng": true, "za": true, "br": true, "mx": true,
}

// topicVocabulary is the closed set of taggable topic codes.
var topicVocabulary = map[string]bool{
	"conflict": true, "diplomacy": true, "elections": true, "government": true,
	"economy": true, "markets": true, "trade": true, "energy": true,
	"climate": true, "environment": true, "technology": true, "ai": true,
	"cybersecurity": true, "space": true, "science": true, "health": true,
	"disease": true, "education": true, "crime": true, "justice": true,
	"migration": true, "disasters": true, "transport": true, "sport": true,
	"football": true, "culture": true, "entertainment": true, "media": true,
	"society": true,
}

// categoryFallbackTopic maps an article category to a default topic when the
// tagger returns nothing usable.
var categoryFallbackTopic = map[string]string{
	"world":      "society",
	"business":   "economy",
	"technology": "technology",
	"science":    "science",
	"health":     "health",
	"politics":   "government",
	"sport":      "sport",
	"culture":    "culture",
}

const defaultTopic = "society"

// fallbackTopic resolves the deterministic default topic for a category.
func fallbackTopic(category string) string {
	if t, ok := categoryFallbackTopic[category]; ok {
		return t
	}
	return defaultTopic
}
