package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ResearchReport struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question    string         `gorm:"type:text;not null"`
	FinalAnswer string         `gorm:"type:text"`
	Tree        datatypes.JSON `gorm:"type:jsonb"`
	Sources     datatypes.JSON `gorm:"type:jsonb"`
	TotalNodes  int            `gorm:"default:0"`
	MaxDepth    int            `gorm:"default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"`
}

func (ResearchReport) TableName() string {
	return "research_reports"
}
