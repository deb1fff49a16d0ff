package rag

import (
	"context"
	"fmt"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/utils"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// RetrievalStore is the vector-backed document store behind answer generation.
// Chunks are embedded once at ingest time; retrieval runs nearest-neighbor
// queries against pgvector.
type RetrievalStore struct {
	chunks   contract.DocumentChunkRepository
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger

	chunkSize           int
	chunkOverlap        int
	similarityThreshold float64
}

func NewRetrievalStore(
	chunks contract.DocumentChunkRepository,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
	chunkSize, chunkOverlap int,
	similarityThreshold float64,
) *RetrievalStore {
	return &RetrievalStore{
		chunks:              chunks,
		embedder:            embedder,
		logger:              log,
		chunkSize:           chunkSize,
		chunkOverlap:        chunkOverlap,
		similarityThreshold: similarityThreshold,
	}
}

// Ingest splits each document into overlapping chunks, embeds them in one
// batch, and persists them. Returns the number of chunks stored. Documents
// with empty content are skipped.
func (s *RetrievalStore) Ingest(ctx context.Context, documents []*entity.IngestDocument) (int, error) {
	var pending []*entity.RetrievedDocument
	var texts []string

	for _, doc := range documents {
		if doc.Content == "" {
			continue
		}
		parts := utils.SplitText(doc.Content, s.chunkSize, s.chunkOverlap)
		for i, part := range parts {
			pending = append(pending, &entity.RetrievedDocument{
				Content:    part,
				ChunkIndex: i,
				Metadata:   doc.Metadata,
			})
			texts = append(texts, part)
		}
	}

	if len(pending) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.GenerateBatch(texts, taskTypeDocument)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(pending) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(pending))
	}

	if err := s.chunks.CreateBulk(ctx, pending, vectors); err != nil {
		return 0, fmt.Errorf("failed to persist chunks: %w", err)
	}

	s.logger.Info("RetrievalStore", "Ingested document chunks", map[string]interface{}{
		"documents": len(documents),
		"chunks":    len(pending),
	})
	return len(pending), nil
}

// Retrieve returns up to k chunks within the configured similarity threshold,
// most similar first.
func (s *RetrievalStore) Retrieve(ctx context.Context, query string, k int) ([]*entity.RetrievedDocument, error) {
	queryVector, err := s.embedQuery(query)
	if err != nil {
		return nil, err
	}

	scored, err := s.chunks.SearchNearest(ctx, queryVector, k, s.maxDistance())
	if err != nil {
		return nil, err
	}
	return documentsOf(scored), nil
}

// RetrieveWithFallback widens the search in stages when the strict threshold
// yields nothing: first the threshold is relaxed to half similarity, then the
// two globally closest chunks are taken regardless of distance. An empty
// result therefore means the store itself is empty.
func (s *RetrievalStore) RetrieveWithFallback(ctx context.Context, query string, k int) ([]*entity.RetrievedDocument, error) {
	queryVector, err := s.embedQuery(query)
	if err != nil {
		return nil, err
	}

	scored, err := s.chunks.SearchNearest(ctx, queryVector, k, s.maxDistance())
	if err != nil {
		return nil, err
	}
	if len(scored) > 0 {
		return documentsOf(scored), nil
	}

	relaxed := s.maxDistance() * 2
	scored, err = s.chunks.SearchNearest(ctx, queryVector, k, relaxed)
	if err != nil {
		return nil, err
	}
	if len(scored) > 0 {
		s.logger.Debug("RetrievalStore", "Relaxed threshold used for retrieval", map[string]interface{}{
			"query":        query,
			"max_distance": relaxed,
		})
		return documentsOf(scored), nil
	}

	scored, err = s.chunks.SearchNearestUnbounded(ctx, queryVector, 2)
	if err != nil {
		return nil, err
	}
	if len(scored) > 0 {
		s.logger.Warn("RetrievalStore", "Falling back to closest chunks regardless of distance", map[string]interface{}{
			"query": query,
		})
	}
	return documentsOf(scored), nil
}

func (s *RetrievalStore) Count(ctx context.Context) (int64, error) {
	return s.chunks.Count(ctx)
}

func (s *RetrievalStore) Reset(ctx context.Context) error {
	return s.chunks.DeleteAll(ctx)
}

func (s *RetrievalStore) embedQuery(query string) ([]float32, error) {
	res, err := s.embedder.Generate(query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return res.Embedding.Values, nil
}

// Cosine similarity s maps to cosine distance 1-s.
func (s *RetrievalStore) maxDistance() float64 {
	return 1 - s.similarityThreshold
}

func documentsOf(scored []*contract.ScoredDocumentChunk) []*entity.RetrievedDocument {
	docs := make([]*entity.RetrievedDocument, len(scored))
	for i, sc := range scored {
		docs[i] = sc.Document
	}
	return docs
}
