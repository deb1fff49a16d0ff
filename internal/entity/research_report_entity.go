package entity

import (
	"time"

	"github.com/google/uuid"
)

// AggregatedSource is one row of the request-level source manifest returned
// alongside the tree.
type AggregatedSource struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Frequency int     `json:"frequency"` // number of leaf nodes grounded on it
	Relevance float64 `json:"relevance"` // best similarity observed
	Depth     int     `json:"depth"`     // shallowest depth it grounded
}

// ResearchReport is a completed research run, persisted for history.
type ResearchReport struct {
	Id          uuid.UUID          `json:"id"`
	Question    string             `json:"question"`
	FinalAnswer string             `json:"final_answer"`
	Tree        *QuestionNode      `json:"tree"`
	Sources     []AggregatedSource `json:"sources"`
	TotalNodes  int                `json:"total_nodes"`
	MaxDepth    int                `json:"max_depth"`
	CreatedAt   time.Time          `json:"created_at"`
}
