package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AskLog struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	RequestId    string         `gorm:"type:varchar(64);not null;index"`
	Query        string         `gorm:"type:text;not null"`
	Tool         string         `gorm:"type:varchar(64)"`
	Status       string         `gorm:"type:varchar(32);not null"`
	Degradations datatypes.JSON `gorm:"type:jsonb"`
	ResultCount  int            `gorm:"default:0"`
	DurationMs   int64          `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (AskLog) TableName() string {
	return "ask_logs"
}
