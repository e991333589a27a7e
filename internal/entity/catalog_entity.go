package entity

import (
	"time"

	"github.com/google/uuid"
)

// ToolDefinition enables or disables a pipeline tool for a tenant.
// A nil TenantId marks a global default row.
type ToolDefinition struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId    *uuid.UUID
	Key         string
	Enabled     bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// PromptTemplate overrides a built-in prompt for a tenant.
// A nil TenantId marks a global default row.
type PromptTemplate struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId  *uuid.UUID
	Key       string
	Template  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
