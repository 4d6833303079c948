package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/tools"
)

// SearchArticlesTool exposes SearchArticles to the model.
type SearchArticlesTool struct{}

var _ tools.Tool = (*SearchArticlesTool)(nil)

// Name returns the name of the tool.
func (t *SearchArticlesTool) Name() string {
	return "search_articles"
}

// Description returns the description of the tool.
func (t *SearchArticlesTool) Description() string {
	return "Search for research articles on a given topic. " +
		"Returns a list of articles with title, summary, source and year."
}

// ArgumentSchema returns the JSON schema of the tool's arguments.
func (t *SearchArticlesTool) ArgumentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "The research topic to search for",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of articles to return (1-10)",
			},
		},
		"required": []string{"topic"},
	}
}

// Call executes the search. Input is a JSON object with topic and an
// optional max_results (default 3).
func (t *SearchArticlesTool) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		Topic      string `json:"topic"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid search_articles arguments: %w", err)
	}
	if args.MaxResults == 0 {
		args.MaxResults = 3
	}

	result := SearchArticles(args.Topic, args.MaxResults)
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode search result: %w", err)
	}
	return string(data), nil
}

// TopicStatsTool exposes GetTopicStats to the model.
type TopicStatsTool struct{}

var _ tools.Tool = (*TopicStatsTool)(nil)

// Name returns the name of the tool.
func (t *TopicStatsTool) Name() string {
	return "get_topic_stats"
}

// Description returns the description of the tool.
func (t *TopicStatsTool) Description() string {
	return "Get publication statistics for a research topic: counts, " +
		"growth rate, top venues and trending subtopics."
}

// ArgumentSchema returns the JSON schema of the tool's arguments.
func (t *TopicStatsTool) ArgumentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "The research topic to get statistics for",
			},
		},
		"required": []string{"topic"},
	}
}

// Call returns the statistics. Input is a JSON object with topic.
func (t *TopicStatsTool) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid get_topic_stats arguments: %w", err)
	}

	data, err := json.Marshal(GetTopicStats(args.Topic))
	if err != nil {
		return "", fmt.Errorf("failed to encode topic stats: %w", err)
	}
	return string(data), nil
}

// FormatCitationTool exposes FormatCitation to the model.
type FormatCitationTool struct{}

var _ tools.Tool = (*FormatCitationTool)(nil)

// Name returns the name of the tool.
func (t *FormatCitationTool) Name() string {
	return "format_citation"
}

// Description returns the description of the tool.
func (t *FormatCitationTool) Description() string {
	return "Format an article citation in a standard academic format."
}

// ArgumentSchema returns the JSON schema of the tool's arguments.
func (t *FormatCitationTool) ArgumentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The title of the article",
			},
			"source": map[string]any{
				"type":        "string",
				"description": "The publication source or journal",
			},
			"year": map[string]any{
				"type":        "integer",
				"description": "The publication year",
			},
		},
		"required": []string{"title", "source", "year"},
	}
}

// Call formats the citation. Input is a JSON object with title, source, year.
func (t *FormatCitationTool) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		Title  string `json:"title"`
		Source string `json:"source"`
		Year   int    `json:"year"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid format_citation arguments: %w", err)
	}
	return FormatCitation(args.Title, args.Source, args.Year), nil
}
