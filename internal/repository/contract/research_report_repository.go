package contract

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/specification"
)

type ResearchReportRepository interface {
	Create(ctx context.Context, report *entity.ResearchReport) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ResearchReport, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ResearchReport, error)
}
