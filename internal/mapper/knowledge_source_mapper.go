package mapper

import (
	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"
)

type KnowledgeSourceMapper struct{}

func NewKnowledgeSourceMapper() *KnowledgeSourceMapper {
	return &KnowledgeSourceMapper{}
}

func (m *KnowledgeSourceMapper) ToModel(source *entity.KnowledgeSource) *model.KnowledgeSource {
	return &model.KnowledgeSource{
		Id:         source.Id,
		URL:        source.URL,
		Title:      source.Title,
		SourceType: source.Type,
		Query:      source.Query,
		FetchedAt:  source.FetchedAt,
		CreatedAt:  source.CreatedAt,
	}
}

func (m *KnowledgeSourceMapper) ToEntity(source *model.KnowledgeSource) *entity.KnowledgeSource {
	return &entity.KnowledgeSource{
		Id:        source.Id,
		URL:       source.URL,
		Title:     source.Title,
		Type:      source.SourceType,
		Query:     source.Query,
		FetchedAt: source.FetchedAt,
		CreatedAt: source.CreatedAt,
	}
}
