package tool

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCitation(t *testing.T) {
	citation := FormatCitation("Test Paper", "Nature", 2024)
	assert.Equal(t, `"Test Paper." Nature, 2024.`, citation)

	citation = FormatCitation("AI Survey", "IEEE", 2023)
	assert.Contains(t, citation, "AI Survey")
	assert.Contains(t, citation, "IEEE")
	assert.Contains(t, citation, "2023")
}

func TestSearchArticles_ClampsToCandidates(t *testing.T) {
	for maxResults := 1; maxResults <= 10; maxResults++ {
		result := SearchArticles("machine learning", maxResults)

		want := maxResults
		if want > 3 {
			want = 3
		}
		if len(result.Articles) != want {
			t.Errorf("maxResults=%d: got %d articles, want %d", maxResults, len(result.Articles), want)
		}
		assert.Equal(t, "machine learning", result.Topic)
		assert.Equal(t, 3, result.TotalFound)
	}
}

func TestSearchArticles_Structure(t *testing.T) {
	result := SearchArticles("robotics", 3)
	require.Len(t, result.Articles, 3)

	for _, a := range result.Articles {
		assert.Contains(t, a.Title, "robotics")
		assert.NotEmpty(t, a.Summary)
		assert.NotEmpty(t, a.Source)
		assert.NotZero(t, a.Year)
	}
	assert.NotEmpty(t, result.SearchDate)
}

func TestGetTopicStats_Ranges(t *testing.T) {
	for i := 0; i < 100; i++ {
		stats := GetTopicStats("deep learning")

		assert.GreaterOrEqual(t, stats.TotalPublications, 5000)
		assert.LessOrEqual(t, stats.TotalPublications, 50000)
		assert.GreaterOrEqual(t, stats.PublicationsLastYear, 500)
		assert.LessOrEqual(t, stats.PublicationsLastYear, 5000)

		assert.GreaterOrEqual(t, stats.GrowthRatePercent, 5.0)
		assert.LessOrEqual(t, stats.GrowthRatePercent, 25.0)

		// At most one decimal digit
		scaled := stats.GrowthRatePercent * 10
		if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Fatalf("growth rate %v has more than one decimal digit", stats.GrowthRatePercent)
		}
	}
}

func TestGetTopicStats_TrendingSubtopics(t *testing.T) {
	stats := GetTopicStats("NLP")

	require.Len(t, stats.TrendingSubtopics, 3)
	for _, sub := range stats.TrendingSubtopics {
		assert.Contains(t, sub, "NLP")
	}
	assert.Equal(t, []string{"Nature", "Science", "IEEE", "ACM"}, stats.TopVenues)
}

func TestSearchArticlesTool_Call(t *testing.T) {
	tl := &SearchArticlesTool{}
	ctx := context.Background()

	out, err := tl.Call(ctx, `{"topic":"climate change","max_results":2}`)
	require.NoError(t, err)

	var result SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "climate change", result.Topic)
	assert.Len(t, result.Articles, 2)
}

func TestSearchArticlesTool_DefaultMaxResults(t *testing.T) {
	tl := &SearchArticlesTool{}

	out, err := tl.Call(context.Background(), `{"topic":"AI"}`)
	require.NoError(t, err)

	var result SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Articles, 3)
}

func TestTopicStatsTool_Call(t *testing.T) {
	tl := &TopicStatsTool{}

	out, err := tl.Call(context.Background(), `{"topic":"robotics"}`)
	require.NoError(t, err)

	var stats Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, "robotics", stats.Topic)
	assert.Len(t, stats.TrendingSubtopics, 3)
}

func TestFormatCitationTool_Call(t *testing.T) {
	tl := &FormatCitationTool{}

	out, err := tl.Call(context.Background(), `{"title":"Test Paper","source":"Nature","year":2024}`)
	require.NoError(t, err)
	assert.Equal(t, `"Test Paper." Nature, 2024.`, out)
}

func TestTools_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	for _, tl := range []interface {
		Call(context.Context, string) (string, error)
	}{
		&SearchArticlesTool{}, &TopicStatsTool{}, &FormatCitationTool{},
	} {
		_, err := tl.Call(ctx, "not json")
		if err == nil {
			t.Errorf("expected error for invalid arguments")
		}
		if err != nil && !strings.Contains(err.Error(), "invalid") {
			t.Errorf("error should mention invalid arguments: %v", err)
		}
	}
}
