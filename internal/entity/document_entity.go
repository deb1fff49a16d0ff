package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentMetadata describes where a retrieved chunk came from.
type DocumentMetadata struct {
	Source    string    `json:"source"` // URL or path
	Title     string    `json:"title"`
	Type      string    `json:"type"` // "web", "text"
	Query     string    `json:"query"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RetrievedDocument is a chunk of ingested text. Immutable once stored;
// the store only appends or wholesale-clears.
type RetrievedDocument struct {
	Id         uuid.UUID        `json:"id"`
	Content    string           `json:"content"`
	ChunkIndex int              `json:"chunk_index"`
	Metadata   DocumentMetadata `json:"metadata"`
	Similarity float64          `json:"-"` // set at retrieval time, 1.0 = identical
}

// IngestDocument is a raw document handed to the retrieval store before
// chunking.
type IngestDocument struct {
	Content  string
	Metadata DocumentMetadata
}
