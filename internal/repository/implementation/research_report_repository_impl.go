package implementation

import (
	"context"
	"errors"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ResearchReportRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResearchReportMapper
}

func NewResearchReportRepository(db *gorm.DB) contract.ResearchReportRepository {
	return &ResearchReportRepositoryImpl{
		db:     db,
		mapper: mapper.NewResearchReportMapper(),
	}
}

func (r *ResearchReportRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ResearchReportRepositoryImpl) Create(ctx context.Context, report *entity.ResearchReport) error {
	m, err := r.mapper.ToModel(report)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	report.Id = m.Id
	report.CreatedAt = m.CreatedAt
	return nil
}

func (r *ResearchReportRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResearchReport, error) {
	var m model.ResearchReport
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ResearchReportRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResearchReport, error) {
	var models []*model.ResearchReport
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ResearchReport, len(models))
	for i, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
