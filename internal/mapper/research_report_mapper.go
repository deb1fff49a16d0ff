package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"
)

type ResearchReportMapper struct{}

func NewResearchReportMapper() *ResearchReportMapper {
	return &ResearchReportMapper{}
}

func (m *ResearchReportMapper) ToModel(report *entity.ResearchReport) (*model.ResearchReport, error) {
	treeJSON, err := json.Marshal(report.Tree)
	if err != nil {
		return nil, err
	}
	sourcesJSON, err := json.Marshal(report.Sources)
	if err != nil {
		return nil, err
	}
	return &model.ResearchReport{
		Id:          report.Id,
		Question:    report.Question,
		FinalAnswer: report.FinalAnswer,
		Tree:        treeJSON,
		Sources:     sourcesJSON,
		TotalNodes:  report.TotalNodes,
		MaxDepth:    report.MaxDepth,
		CreatedAt:   report.CreatedAt,
	}, nil
}

func (m *ResearchReportMapper) ToEntity(report *model.ResearchReport) (*entity.ResearchReport, error) {
	var tree *entity.QuestionNode
	if len(report.Tree) > 0 {
		if err := json.Unmarshal(report.Tree, &tree); err != nil {
			return nil, err
		}
	}
	var sources []entity.AggregatedSource
	if len(report.Sources) > 0 {
		if err := json.Unmarshal(report.Sources, &sources); err != nil {
			return nil, err
		}
	}
	return &entity.ResearchReport{
		Id:          report.Id,
		Question:    report.Question,
		FinalAnswer: report.FinalAnswer,
		Tree:        tree,
		Sources:     sources,
		TotalNodes:  report.TotalNodes,
		MaxDepth:    report.MaxDepth,
		CreatedAt:   report.CreatedAt,
	}, nil
}
