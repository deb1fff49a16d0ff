package dto

import (
	"time"

	"ai-research-be/internal/entity"

	"github.com/google/uuid"
)

type CreateResearchRequest struct {
	Question           string `json:"question" validate:"required,min=3"`
	MaxRecursionDepth  *int   `json:"max_recursion_depth" validate:"omitempty,min=1"`
	MaxSubQuestions    *int   `json:"max_sub_questions" validate:"omitempty,min=1"`
	RecursionThreshold *int   `json:"recursion_threshold" validate:"omitempty,min=0"`
}

type ResearchMetadata struct {
	TotalNodes int `json:"total_nodes"`
	MaxDepth   int `json:"max_depth"`
}

type CreateResearchResponse struct {
	Id          uuid.UUID                 `json:"id"`
	Question    string                    `json:"question"`
	FinalAnswer string                    `json:"final_answer"`
	Tree        *entity.QuestionNode      `json:"tree"`
	AllSources  []entity.AggregatedSource `json:"all_sources"`
	Metadata    ResearchMetadata          `json:"metadata"`
}

type ResearchReportSummaryResponse struct {
	Id         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	TotalNodes int       `json:"total_nodes"`
	MaxDepth   int       `json:"max_depth"`
	CreatedAt  time.Time `json:"created_at"`
}

type ShowResearchReportResponse struct {
	Id          uuid.UUID                 `json:"id"`
	Question    string                    `json:"question"`
	FinalAnswer string                    `json:"final_answer"`
	Tree        *entity.QuestionNode      `json:"tree"`
	AllSources  []entity.AggregatedSource `json:"all_sources"`
	Metadata    ResearchMetadata          `json:"metadata"`
	CreatedAt   time.Time                 `json:"created_at"`
}

type KnowledgeSourceResponse struct {
	Id        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Query     string    `json:"query"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PublishResearchReportMessage carries a completed report to the persistence
// consumer. The report is embedded whole since it does not exist in the
// database yet when the message is published.
type PublishResearchReportMessage struct {
	Report *entity.ResearchReport `json:"report"`
}
