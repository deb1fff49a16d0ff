package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeSource is one entry of the ingestion provenance manifest.
// Appended on every ingestion; deduplication by URL happens at reporting time.
type KnowledgeSource struct {
	Id        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Query     string    `json:"query"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
}
