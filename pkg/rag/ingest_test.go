package rag

import (
	"context"
	"errors"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/specification"
	"ai-research-be/pkg/websearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSearch struct {
	results []websearch.SearchResult
	err     error
}

func (s *scriptedSearch) Search(context.Context, string, int) ([]websearch.SearchResult, error) {
	return s.results, s.err
}

type memorySourceRepo struct {
	rows      []*entity.KnowledgeSource
	createErr error
}

func (m *memorySourceRepo) CreateBulk(_ context.Context, sources []*entity.KnowledgeSource) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows = append(m.rows, sources...)
	return nil
}

func (m *memorySourceRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.KnowledgeSource, error) {
	return m.rows, nil
}

func (m *memorySourceRepo) Count(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memorySourceRepo) DeleteAll(context.Context) error {
	m.rows = nil
	return nil
}

func TestPopulateFromSearchIngestsAndRecordsManifest(t *testing.T) {
	chunkRepo := &memoryChunkRepo{}
	sourceRepo := &memorySourceRepo{}
	search := &scriptedSearch{results: []websearch.SearchResult{
		{URL: "https://a", Title: "Solar", Description: "Costs are falling", Snippets: []string{"extra detail"}},
		{URL: "https://b", Title: "Wind", Description: "Site dependent"},
	}}
	store := newStore(chunkRepo, &recordingEmbedder{})
	ingestion := NewKnowledgeIngestion(store, search, sourceRepo, noopLogger{}, 3)

	count, err := ingestion.PopulateFromSearch(context.Background(), "renewables")
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, chunkRepo.created, 2)
	assert.Contains(t, chunkRepo.created[0].Content, "Solar")
	assert.Contains(t, chunkRepo.created[0].Content, "extra detail")
	assert.Equal(t, "renewables", chunkRepo.created[0].Metadata.Query)
	assert.Equal(t, "web_search", chunkRepo.created[0].Metadata.Type)

	require.Len(t, sourceRepo.rows, 2)
	assert.Equal(t, "https://a", sourceRepo.rows[0].URL)
	assert.Equal(t, "renewables", sourceRepo.rows[0].Query)
	assert.Equal(t, sourceRepo.rows[0].FetchedAt, sourceRepo.rows[1].FetchedAt)
}

func TestPopulateFromSearchSearchFailureIsBestEffort(t *testing.T) {
	chunkRepo := &memoryChunkRepo{}
	store := newStore(chunkRepo, &recordingEmbedder{})
	ingestion := NewKnowledgeIngestion(store, &scriptedSearch{err: errors.New("dns failure")}, &memorySourceRepo{}, noopLogger{}, 3)

	count, err := ingestion.PopulateFromSearch(context.Background(), "q")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, chunkRepo.created)
}

func TestPopulateFromSearchNoResults(t *testing.T) {
	store := newStore(&memoryChunkRepo{}, &recordingEmbedder{})
	ingestion := NewKnowledgeIngestion(store, &scriptedSearch{}, &memorySourceRepo{}, noopLogger{}, 3)

	count, err := ingestion.PopulateFromSearch(context.Background(), "q")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPopulateFromSearchIngestFailureIsBestEffort(t *testing.T) {
	store := newStore(&memoryChunkRepo{}, &recordingEmbedder{err: errors.New("quota exceeded")})
	sourceRepo := &memorySourceRepo{}
	search := &scriptedSearch{results: []websearch.SearchResult{
		{URL: "https://a", Title: "Solar", Description: "Costs"},
	}}
	ingestion := NewKnowledgeIngestion(store, search, sourceRepo, noopLogger{}, 3)

	count, err := ingestion.PopulateFromSearch(context.Background(), "q")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, sourceRepo.rows)
}

func TestPopulateFromSearchManifestFailureKeepsChunks(t *testing.T) {
	chunkRepo := &memoryChunkRepo{}
	store := newStore(chunkRepo, &recordingEmbedder{})
	search := &scriptedSearch{results: []websearch.SearchResult{
		{URL: "https://a", Title: "Solar", Description: "Costs"},
	}}
	ingestion := NewKnowledgeIngestion(store, search, &memorySourceRepo{createErr: errors.New("constraint violation")}, noopLogger{}, 3)

	count, err := ingestion.PopulateFromSearch(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotEmpty(t, chunkRepo.created)
}

func TestComposeDocumentSkipsEmptyParts(t *testing.T) {
	got := composeDocument(websearch.SearchResult{
		Title:    "Title",
		Snippets: []string{"", "snippet"},
	})
	assert.Equal(t, "Title\n\nsnippet", got)

	assert.Empty(t, composeDocument(websearch.SearchResult{URL: "https://a"}))
}
