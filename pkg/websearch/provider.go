package websearch

import "context"

// SearchResult is one hit from a web search backend.
type SearchResult struct {
	URL         string
	Title       string
	Description string
	Snippets    []string
}

// SearchProvider defines the interface for web search backends
type SearchProvider interface {
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
}
