package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId     uuid.UUID `gorm:"type:uuid;index"`
	CanonicalId  string    // stable identity used for cross-backend dedupe
	Url          string
	Name         string
	ContentChunk string
	SchemaObject datatypes.JSON
	Embedding    []float32
	ChunkIndex   int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
