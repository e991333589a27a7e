package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AskLog is the archived record of a completed (or failed) ask request.
type AskLog struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId     uuid.UUID `gorm:"type:uuid;index"`
	RequestId    string
	Query        string
	Tool         string
	Status       string
	Degradations datatypes.JSON
	ResultCount  int
	DurationMs   int64
	CreatedAt    time.Time
}
