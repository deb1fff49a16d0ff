package mapper

import (
	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToModel(doc *entity.RetrievedDocument, embedding []float32) *model.DocumentChunk {
	return &model.DocumentChunk{
		Id:             doc.Id,
		Content:        doc.Content,
		EmbeddingValue: pgvector.NewVector(embedding),
		ChunkIndex:     doc.ChunkIndex,
		SourceURL:      doc.Metadata.Source,
		Title:          doc.Metadata.Title,
		SourceType:     doc.Metadata.Type,
		Query:          doc.Metadata.Query,
		FetchedAt:      doc.Metadata.FetchedAt,
	}
}

func (m *DocumentChunkMapper) ToEntity(chunk *model.DocumentChunk) *entity.RetrievedDocument {
	return &entity.RetrievedDocument{
		Id:         chunk.Id,
		Content:    chunk.Content,
		ChunkIndex: chunk.ChunkIndex,
		Metadata: entity.DocumentMetadata{
			Source:    chunk.SourceURL,
			Title:     chunk.Title,
			Type:      chunk.SourceType,
			Query:     chunk.Query,
			FetchedAt: chunk.FetchedAt,
		},
	}
}
