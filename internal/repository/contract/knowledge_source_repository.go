package contract

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/specification"
)

type KnowledgeSourceRepository interface {
	CreateBulk(ctx context.Context, sources []*entity.KnowledgeSource) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeSource, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}
