package rag

import (
	"context"
	"strings"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/pkg/websearch"
)

// KnowledgeIngestion pulls web search results into the retrieval store. It is
// best effort: a failed search or a failed ingest degrades to an empty (or
// partial) knowledge base rather than failing the research run.
type KnowledgeIngestion struct {
	store   *RetrievalStore
	search  websearch.SearchProvider
	sources contract.KnowledgeSourceRepository
	logger  logger.ILogger

	resultCount int
}

func NewKnowledgeIngestion(
	store *RetrievalStore,
	search websearch.SearchProvider,
	sources contract.KnowledgeSourceRepository,
	log logger.ILogger,
	resultCount int,
) *KnowledgeIngestion {
	if resultCount <= 0 {
		resultCount = 3
	}
	return &KnowledgeIngestion{
		store:       store,
		search:      search,
		sources:     sources,
		logger:      log,
		resultCount: resultCount,
	}
}

// PopulateFromSearch searches the web for the question, ingests the result
// texts, and records one knowledge source row per result. Returns how many
// chunks landed in the store; zero with a nil error means nothing usable came
// back.
func (k *KnowledgeIngestion) PopulateFromSearch(ctx context.Context, query string) (int, error) {
	results, err := k.search.Search(ctx, query, k.resultCount)
	if err != nil {
		k.logger.Warn("KnowledgeIngestion", "Web search failed, continuing without new knowledge", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return 0, nil
	}
	if len(results) == 0 {
		k.logger.Info("KnowledgeIngestion", "Web search returned no results", map[string]interface{}{
			"query": query,
		})
		return 0, nil
	}

	fetchedAt := time.Now().UTC()
	documents := make([]*entity.IngestDocument, 0, len(results))
	sourceRows := make([]*entity.KnowledgeSource, 0, len(results))

	for _, res := range results {
		content := composeDocument(res)
		if content == "" {
			continue
		}
		documents = append(documents, &entity.IngestDocument{
			Content: content,
			Metadata: entity.DocumentMetadata{
				Source:    res.URL,
				Title:     res.Title,
				Type:      "web_search",
				Query:     query,
				FetchedAt: fetchedAt,
			},
		})
		sourceRows = append(sourceRows, &entity.KnowledgeSource{
			URL:       res.URL,
			Title:     res.Title,
			Type:      "web_search",
			Query:     query,
			FetchedAt: fetchedAt,
		})
	}

	chunkCount, err := k.store.Ingest(ctx, documents)
	if err != nil {
		k.logger.Error("KnowledgeIngestion", "Failed to ingest search results", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return 0, nil
	}

	if err := k.sources.CreateBulk(ctx, sourceRows); err != nil {
		// The chunks are already stored and usable; losing the manifest row is
		// only a bookkeeping gap.
		k.logger.Warn("KnowledgeIngestion", "Failed to record knowledge sources", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
	}

	k.logger.Info("KnowledgeIngestion", "Populated knowledge base from web search", map[string]interface{}{
		"query":   query,
		"sources": len(documents),
		"chunks":  chunkCount,
	})
	return chunkCount, nil
}

// composeDocument flattens one search result into a single ingestible text.
func composeDocument(res websearch.SearchResult) string {
	parts := make([]string, 0, 2+len(res.Snippets))
	if res.Title != "" {
		parts = append(parts, res.Title)
	}
	if res.Description != "" {
		parts = append(parts, res.Description)
	}
	for _, snippet := range res.Snippets {
		if snippet != "" {
			parts = append(parts, snippet)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
