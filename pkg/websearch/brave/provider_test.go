package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSendsQueryAndAuthHeaders(t *testing.T) {
	var gotQuery, gotCount, gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		gotToken = r.Header.Get("X-Subscription-Token")
		w.Write([]byte(`{"web": {"results": [
			{"title": "Solar costs", "url": "https://example.com/solar", "description": "LCOE overview", "extra_snippets": ["snippet one"]},
			{"title": "No link", "url": "", "description": "dropped"},
			{"title": "Wind costs", "url": "https://example.com/wind", "description": "Turbine economics"}
		]}}`))
	}))
	defer server.Close()

	provider := NewBraveProviderWithEndpoint("test-key", server.URL)
	results, err := provider.Search(context.Background(), "renewable energy costs", 5)
	require.NoError(t, err)

	assert.Equal(t, "renewable energy costs", gotQuery)
	assert.Equal(t, "5", gotCount)
	assert.Equal(t, "test-key", gotToken)

	require.Len(t, results, 2) // result without a URL is dropped
	assert.Equal(t, "https://example.com/solar", results[0].URL)
	assert.Equal(t, "Solar costs", results[0].Title)
	assert.Equal(t, "LCOE overview", results[0].Description)
	assert.Equal(t, []string{"snippet one"}, results[0].Snippets)
	assert.Equal(t, "https://example.com/wind", results[1].URL)
}

func TestSearchDefaultsCount(t *testing.T) {
	var gotCount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		w.Write([]byte(`{"web": {"results": []}}`))
	}))
	defer server.Close()

	provider := NewBraveProviderWithEndpoint("test-key", server.URL)
	results, err := provider.Search(context.Background(), "q", 0)
	require.NoError(t, err)

	assert.Equal(t, "3", gotCount)
	assert.Empty(t, results)
}

func TestSearchRequiresAPIKey(t *testing.T) {
	provider := NewBraveProvider("")
	_, err := provider.Search(context.Background(), "q", 3)
	require.Error(t, err)
}

func TestSearchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	provider := NewBraveProviderWithEndpoint("test-key", server.URL)
	_, err := provider.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	provider := NewBraveProviderWithEndpoint("test-key", server.URL)
	_, err := provider.Search(context.Background(), "q", 3)
	require.Error(t, err)
}
