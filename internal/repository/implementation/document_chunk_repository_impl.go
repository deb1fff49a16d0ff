package implementation

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, documents []*entity.RetrievedDocument, embeddings [][]float32) error {
	if len(documents) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(documents))
	for i, doc := range documents {
		models[i] = r.mapper.ToModel(doc, embeddings[i])
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Write generated IDs back to the entities
	for i, m := range models {
		documents[i].Id = m.Id
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) SearchNearest(ctx context.Context, embedding []float32, limit int, maxDistance float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector cosine distance: embedding_value <=> query_vector
	var results []scoredChunkRow

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, embedding_value <=> ? as distance", queryVector).
		Where("embedding_value <=> ? < ?", queryVector, maxDistance).
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(results), nil
}

func (r *DocumentChunkRepositoryImpl) SearchNearestUnbounded(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 2
	}

	var results []scoredChunkRow

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, embedding_value <=> ? as distance", queryVector).
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(results), nil
}

func (r *DocumentChunkRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM document_chunks").Error
}

type scoredChunkRow struct {
	model.DocumentChunk
	Distance float64
}

func (r *DocumentChunkRepositoryImpl) toScored(results []scoredChunkRow) []*contract.ScoredDocumentChunk {
	scored := make([]*contract.ScoredDocumentChunk, len(results))
	for i, res := range results {
		doc := r.mapper.ToEntity(&res.DocumentChunk)
		doc.Similarity = 1 - res.Distance
		scored[i] = &contract.ScoredDocumentChunk{
			Document: doc,
			Distance: res.Distance,
		}
	}
	return scored
}
