package implementation

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"gorm.io/gorm"
)

type KnowledgeSourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeSourceMapper
}

func NewKnowledgeSourceRepository(db *gorm.DB) contract.KnowledgeSourceRepository {
	return &KnowledgeSourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeSourceMapper(),
	}
}

func (r *KnowledgeSourceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeSourceRepositoryImpl) CreateBulk(ctx context.Context, sources []*entity.KnowledgeSource) error {
	if len(sources) == 0 {
		return nil
	}
	models := make([]*model.KnowledgeSource, len(sources))
	for i, s := range sources {
		models[i] = r.mapper.ToModel(s)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*sources[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeSourceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeSource, error) {
	var models []*model.KnowledgeSource
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeSource, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeSourceRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.KnowledgeSource{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeSourceRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM knowledge_sources").Error
}
