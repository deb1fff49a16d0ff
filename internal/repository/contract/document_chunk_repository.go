package contract

import (
	"context"

	"ai-research-be/internal/entity"
)

// ScoredDocumentChunk wraps a retrieved chunk with its cosine distance to the
// query vector (lower = more similar).
type ScoredDocumentChunk struct {
	Document *entity.RetrievedDocument
	Distance float64
}

type DocumentChunkRepository interface {
	// CreateBulk appends chunks with their embedding vectors. embeddings[i]
	// belongs to documents[i].
	CreateBulk(ctx context.Context, documents []*entity.RetrievedDocument, embeddings [][]float32) error
	Count(ctx context.Context) (int64, error)
	// SearchNearest returns up to limit chunks whose cosine distance to the
	// query embedding is below maxDistance, nearest first.
	SearchNearest(ctx context.Context, embedding []float32, limit int, maxDistance float64) ([]*ScoredDocumentChunk, error)
	// SearchNearestUnbounded ignores any distance cutoff.
	SearchNearestUnbounded(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentChunk, error)
	DeleteAll(ctx context.Context) error
}
