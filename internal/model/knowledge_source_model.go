package model

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeSource struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	URL        string    `gorm:"type:text;index"`
	Title      string    `gorm:"type:text"`
	SourceType string    `gorm:"type:varchar(32)"`
	Query      string    `gorm:"type:text"`
	FetchedAt  time.Time `gorm:""`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (KnowledgeSource) TableName() string {
	return "knowledge_sources"
}
