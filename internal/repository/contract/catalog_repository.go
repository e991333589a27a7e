package contract

import (
	"context"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CatalogRepository interface {
	CreateTool(ctx context.Context, tool *entity.ToolDefinition) error
	CreatePrompt(ctx context.Context, prompt *entity.PromptTemplate) error
	// FindTools returns tool definitions for a tenant merged with global
	// defaults; tenant rows shadow globals with the same key.
	FindTools(ctx context.Context, tenantId uuid.UUID) ([]*entity.ToolDefinition, error)
	// FindPrompt resolves a prompt template by key, preferring the tenant
	// override over the global default.
	FindPrompt(ctx context.Context, tenantId uuid.UUID, key string) (*entity.PromptTemplate, error)
	FindAllPrompts(ctx context.Context, specs ...specification.Specification) ([]*entity.PromptTemplate, error)
}
