package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ai-research-be/pkg/websearch"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type BraveProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

var _ websearch.SearchProvider = &BraveProvider{}

func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewBraveProviderWithEndpoint is used by tests to point at a stub server.
func NewBraveProviderWithEndpoint(apiKey, endpoint string) *BraveProvider {
	p := NewBraveProvider(apiKey)
	p.endpoint = endpoint
	return p
}

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title         string   `json:"title"`
			URL           string   `json:"url"`
			Description   string   `json:"description"`
			ExtraSnippets []string `json:"extra_snippets,omitempty"`
		} `json:"results"`
	} `json:"web"`
}

func (p *BraveProvider) Search(ctx context.Context, query string, count int) ([]websearch.SearchResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("brave search api key is not configured")
	}
	if count <= 0 {
		count = 3
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search error, code %d, body %s", res.StatusCode, string(body))
	}

	var parsed braveSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode brave response: %w", err)
	}

	results := make([]websearch.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, websearch.SearchResult{
			URL:         r.URL,
			Title:       r.Title,
			Description: r.Description,
			Snippets:    r.ExtraSnippets,
		})
	}
	return results, nil
}
