package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ToolDefinition struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId    *uuid.UUID     `gorm:"type:uuid;index"`
	Key         string         `gorm:"type:varchar(64);not null;index"`
	Enabled     bool           `gorm:"default:true"`
	Description string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ToolDefinition) TableName() string {
	return "tool_definitions"
}

type PromptTemplate struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId  *uuid.UUID     `gorm:"type:uuid;index"`
	Key       string         `gorm:"type:varchar(64);not null;index"`
	Template  string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (PromptTemplate) TableName() string {
	return "prompt_templates"
}
