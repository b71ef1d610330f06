// Package search implements the web search tool server: one web_search
// tool backed by the Google Custom Search API.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonwraymond/toolquery/server"
)

// Server identity advertised during the MCP handshake.
const (
	Name    = "google-search-server"
	Version = "v0.1.0"
)

// Search types. Every type except TypeGeneral appends a suffix to the query.
const (
	TypeGeneral    = "general"
	TypeTrends     = "trends"
	TypeRegulatory = "regulatory"
	TypeBenchmarks = "benchmarks"
)

var suffixes = map[string]string{
	TypeTrends:     " trends 2024 latest",
	TypeRegulatory: " regulatory compliance updates",
	TypeBenchmarks: " industry benchmarks metrics",
}

// ErrEmptyQuery is reported for a blank query.
var ErrEmptyQuery = errors.New("query is required")

// Item is one search hit.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet,omitempty"`
	DisplayLink string `json:"displayLink,omitempty"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// Input is the argument object of web_search.
type Input struct {
	Query      string `json:"query" jsonschema:"search query, e.g. AI industry benchmarks 2024"`
	SearchType string `json:"search_type,omitempty" jsonschema:"one of general, trends, regulatory, benchmarks"`
}

// Output is the result object of web_search.
type Output struct {
	Success    bool   `json:"success"`
	Results    []Item `json:"results,omitempty"`
	SearchType string `json:"search_type,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BuildQuery appends the suffix of searchType to query. Unknown types are
// searched as TypeGeneral.
func BuildQuery(query, searchType string) string {
	return query + suffixes[strings.ToLower(searchType)]
}

// NewServer returns an MCP server exposing web_search over s.
func NewServer(s Searcher, log zerolog.Logger) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "web_search",
		Description: "Search the web for industry information, trends, and regulatory updates.",
	}, handler(s, log))
	return srv
}

func handler(s Searcher, log zerolog.Logger) mcp.ToolHandlerFor[Input, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, any, error) {
		searchType := in.SearchType
		if searchType == "" {
			searchType = TypeGeneral
		}
		if strings.TrimSpace(in.Query) == "" {
			return server.JSON(Output{Error: ErrEmptyQuery.Error()})
		}

		q := BuildQuery(in.Query, searchType)
		items, err := s.Search(ctx, q)
		if err != nil {
			log.Warn().Err(err).Str("query", q).Msg("search failed")
			return server.JSON(Output{Error: err.Error()})
		}
		log.Debug().Str("query", q).Int("results", len(items)).Msg("search done")
		if items == nil {
			items = []Item{}
		}
		return server.JSON(Output{Success: true, Results: items, SearchType: searchType})
	}
}

// Google searches with the Custom Search JSON API.
type Google struct {
	svc      *customsearch.Service
	engineID string
	num      int64
}

// NewGoogle creates a Google searcher for the programmable search engine
// engineID. num is the number of results per query (1 to 10).
func NewGoogle(ctx context.Context, apiKey, engineID string, num int64, opts ...option.ClientOption) (*Google, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	return &Google{svc: svc, engineID: engineID, num: num}, nil
}

// Search implements Searcher.
func (g *Google) Search(ctx context.Context, query string) ([]Item, error) {
	res, err := g.svc.Cse.List().Q(query).Cx(g.engineID).Num(g.num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}
	items := make([]Item, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, Item{
			Title:       r.Title,
			Link:        r.Link,
			Snippet:     r.Snippet,
			DisplayLink: r.DisplayLink,
		})
	}
	return items, nil
}
