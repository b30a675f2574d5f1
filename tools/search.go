package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

const (
	DefaultSearchBaseURL = "https://www.googleapis.com/customsearch/v1"
	// SearchResultLimit caps both the num parameter and the items formatted.
	SearchResultLimit = 5
)

const noSearchResults = "Tool returned no results. Inform the user that you couldn't find anything."

var ErrSearchNotConfigured = errors.New("search API key or search engine id is not configured")

type SearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query to use."`
}

var SearchInputSchema = GenerateSchema[SearchInput]()

// SearchResult is one Custom Search item.
type SearchResult struct {
	Title   string
	Snippet string
}

// SearchTool queries the Google Custom Search JSON API.
type SearchTool struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

func NewSearchTool(apiKey, engineID, baseURL string, client *http.Client) *SearchTool {
	if baseURL == "" {
		baseURL = DefaultSearchBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SearchTool{apiKey: apiKey, engineID: engineID, baseURL: baseURL, client: client}
}

func (s *SearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "google_search",
		Description: "This tool performs a web search using the Google Custom Search JSON API.",
		InputSchema: SearchInputSchema,
		Function:    s.Run,
	}
}

func (s *SearchTool) Run(ctx context.Context, input json.RawMessage) (string, error) {
	var in SearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", errors.Wrap(err, "decode google_search input")
	}
	return s.Search(ctx, in.Query), nil
}

// Search returns up to SearchResultLimit results formatted for the model.
// No results and failures are both reported as instructions to the model.
func (s *SearchTool) Search(ctx context.Context, query string) string {
	results, err := s.fetch(ctx, query)
	if err != nil {
		return fmt.Sprintf("Tool Error: The search failed. Do not try again. Reason: %v", err)
	}
	if len(results) == 0 {
		return noSearchResults
	}
	return FormatResults(results)
}

// FormatResults renders results as Title/Snippet blocks separated by a blank line.
func FormatResults(results []SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSnippet: %s", r.Title, r.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}

func (s *SearchTool) fetch(ctx context.Context, query string) ([]SearchResult, error) {
	if s.apiKey == "" || s.engineID == "" {
		return nil, ErrSearchNotConfigured
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty search query")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("key", s.apiKey)
	q.Set("cx", s.engineID)
	q.Set("num", strconv.Itoa(SearchResultLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, stripURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read search response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("HTTP %s", resp.Status)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("search response is not valid JSON")
	}

	items := gjson.GetBytes(body, "items").Array()
	if len(items) > SearchResultLimit {
		items = items[:SearchResultLimit]
	}
	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, SearchResult{
			Title:   item.Get("title").String(),
			Snippet: item.Get("snippet").String(),
		})
	}
	return results, nil
}
