package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content        string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	ChunkIndex     int             `gorm:"default:0"`
	SourceURL      string          `gorm:"type:text;index"`
	Title          string          `gorm:"type:text"`
	SourceType     string          `gorm:"type:varchar(32)"`
	Query          string          `gorm:"type:text"`
	FetchedAt      time.Time       `gorm:""`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
