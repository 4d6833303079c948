package tool

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Article is a single synthetic search hit.
type Article struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Year    int    `json:"year"`
}

// SearchResult is the payload returned by SearchArticles.
type SearchResult struct {
	Topic      string    `json:"topic"`
	Articles   []Article `json:"articles"`
	TotalFound int       `json:"total_found"`
	SearchDate string    `json:"search_date"`
}

// candidateArticles builds the fixed candidate list for a topic. The text is
// deterministic; only the topic varies.
func candidateArticles(topic string) []Article {
	return []Article{
		{
			Title:   fmt.Sprintf("Advances in %s: A 2024 Review", topic),
			Summary: fmt.Sprintf("This paper reviews recent developments in %s, highlighting key breakthroughs and future directions.", topic),
			Source:  "Journal of AI Research",
			Year:    2024,
		},
		{
			Title:   fmt.Sprintf("Understanding %s: Challenges and Opportunities", topic),
			Summary: fmt.Sprintf("An analysis of current challenges in %s and emerging opportunities for researchers.", topic),
			Source:  "Nature Reviews",
			Year:    2024,
		},
		{
			Title:   fmt.Sprintf("Practical Applications of %s", topic),
			Summary: fmt.Sprintf("A survey of real-world applications of %s across different industries.", topic),
			Source:  "IEEE Transactions",
			Year:    2023,
		},
	}
}

// SearchArticles returns up to maxResults synthetic articles for the topic.
// The result length is min(maxResults, candidate count); the candidate list
// currently holds three entries.
func SearchArticles(topic string, maxResults int) SearchResult {
	candidates := candidateArticles(topic)

	n := maxResults
	if n < 0 {
		n = 0
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	return SearchResult{
		Topic:      topic,
		Articles:   candidates[:n],
		TotalFound: len(candidates),
		SearchDate: time.Now().Format(time.RFC3339),
	}
}

// Stats is the payload returned by GetTopicStats.
type Stats struct {
	Topic                string   `json:"topic"`
	TotalPublications    int      `json:"total_publications"`
	PublicationsLastYear int      `json:"publications_last_year"`
	GrowthRatePercent    float64  `json:"growth_rate_percent"`
	TopVenues            []string `json:"top_venues"`
	TrendingSubtopics    []string `json:"trending_subtopics"`
}

// GetTopicStats returns randomized publication statistics for the topic.
// Counts fall in [5000,50000] and [500,5000]; the growth rate falls in
// [5.0,25.0] rounded to one decimal.
func GetTopicStats(topic string) Stats {
	return Stats{
		Topic:                topic,
		TotalPublications:    5000 + rand.Intn(45001),
		PublicationsLastYear: 500 + rand.Intn(4501),
		GrowthRatePercent:    math.Round((5.0+rand.Float64()*20.0)*10) / 10,
		TopVenues:            []string{"Nature", "Science", "IEEE", "ACM"},
		TrendingSubtopics: []string{
			fmt.Sprintf("%s applications", topic),
			fmt.Sprintf("%s ethics", topic),
			fmt.Sprintf("automated %s", topic),
		},
	}
}

// FormatCitation formats a citation in a standard academic format:
// "{title}." {source}, {year}.
func FormatCitation(title, source string, year int) string {
	return fmt.Sprintf(`"%s." %s, %d.`, title, source, year)
}
