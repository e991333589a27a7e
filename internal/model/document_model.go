package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CanonicalId  string          `gorm:"type:varchar(512);not null;index"`
	Url          string          `gorm:"type:varchar(1024)"`
	Name         string          `gorm:"type:varchar(512)"`
	ContentChunk string          `gorm:"type:text"`
	SchemaObject datatypes.JSON  `gorm:"type:jsonb"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	ChunkIndex   int             `gorm:"default:0"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
